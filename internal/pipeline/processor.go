// Package pipeline 实现文档的后台处理流水线：
// 提取文本、选择策略、分块落库、触发索引重建。
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"weaver-rag-go/internal/chunker"
	"weaver-rag-go/internal/config"
	"weaver-rag-go/internal/extractor"
	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/embedding"
	"weaver-rag-go/pkg/log"
	"weaver-rag-go/pkg/storage"
	"weaver-rag-go/pkg/tasks"
)

// Processor 实现 kafka.TaskProcessor，由消费者在独立连接上调用。
type Processor struct {
	projectRepo  repository.ProjectRepository
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	builder      *index.Builder
	embedder     embedding.Client
	taskStore    tasks.Store
}

// NewProcessor 创建文档处理器。
func NewProcessor(
	projectRepo repository.ProjectRepository,
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	builder *index.Builder,
	embedder embedding.Client,
	taskStore tasks.Store,
) *Processor {
	return &Processor{
		projectRepo:  projectRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		builder:      builder,
		embedder:     embedder,
		taskStore:    taskStore,
	}
}

// Process 处理一个文档任务。分块落库并标记 processed 之后，
// 索引重建失败只记日志不算任务失败，检索能力降级但上传结果不受影响。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentProcessingTask) error {
	_ = p.taskStore.UpdateStatus(task.TaskID, tasks.StatusProcessing, "")

	if err := p.process(ctx, task); err != nil {
		_ = p.taskStore.UpdateStatus(task.TaskID, tasks.StatusFailed, err.Error())
		return err
	}

	_ = p.taskStore.UpdateStatus(task.TaskID, tasks.StatusCompleted, "")
	return nil
}

func (p *Processor) process(ctx context.Context, task tasks.DocumentProcessingTask) error {
	document, err := p.documentRepo.FindByID(task.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document %d: %w", task.DocumentID, err)
	}
	if document == nil {
		return fmt.Errorf("document %d not found", task.DocumentID)
	}

	project, err := p.projectRepo.FindByID(document.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project %d: %w", document.ProjectID, err)
	}
	if project == nil {
		return fmt.Errorf("project %d not found", document.ProjectID)
	}

	data, err := p.readDocument(ctx, document)
	if err != nil {
		return err
	}

	text, err := extractor.ExtractText(document.OriginalFilename, data)
	if err != nil {
		return err
	}

	strategy := p.resolveStrategy(project, document)
	params := chunker.ResolveParams(strategy, project.ChunkingParams)
	pieces := chunker.Split(text, strategy, params, func(texts []string) ([][]float32, error) {
		return p.embedder.CreateEmbeddings(ctx, texts)
	})
	log.Infof("文档 %d 使用策略 %s 分块完成，共 %d 块", document.ID, strategy, len(pieces))

	chunks := make([]*model.DocumentChunk, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, &model.DocumentChunk{
			DocumentID: document.ID,
			ChunkIndex: i,
			Content:    content,
		})
	}
	if err := p.chunkRepo.ReplaceForDocument(document.ID, chunks); err != nil {
		return fmt.Errorf("failed to persist chunks for document %d: %w", document.ID, err)
	}

	if err := p.documentRepo.MarkProcessed(document.ID); err != nil {
		return fmt.Errorf("failed to mark document %d processed: %w", document.ID, err)
	}

	if err := p.builder.Rebuild(ctx, document.ProjectID); err != nil {
		log.Errorf("索引重建失败，检索降级: projectID=%d, err=%v", document.ProjectID, err)
	}
	return nil
}

// readDocument 优先读本地文件，本地缺失时从对象存储拉回并补写本地副本。
func (p *Processor) readDocument(ctx context.Context, document *model.Document) ([]byte, error) {
	if document.FilePath != "" {
		if data, err := os.ReadFile(document.FilePath); err == nil {
			return data, nil
		}
	}

	obj, err := storage.GetObject(ctx, config.Conf.MinIO.BucketName, document.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", document.FileName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", document.FileName, err)
	}

	if document.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(document.FilePath), 0o755); err == nil {
			if err := os.WriteFile(document.FilePath, data, 0o644); err != nil {
				log.Warnf("本地副本写入失败: %s, err=%v", document.FilePath, err)
			}
		}
	}
	return data, nil
}

// resolveStrategy 显式配置优先，否则根据项目类型和文件扩展名分布自动选择。
// 扩展名分布统计已激活且处理完成的文档，再加上当前正在处理的这一个。
func (p *Processor) resolveStrategy(project *model.Project, current *model.Document) string {
	if project.ChunkingStrategy != "" {
		return project.ChunkingStrategy
	}

	documents, err := p.documentRepo.FindActiveProcessed(project.ID)
	if err != nil {
		log.Warnf("读取项目文档列表失败，按项目类型选择策略: projectID=%d, err=%v", project.ID, err)
		documents = nil
	}
	extensions := make([]string, 0, len(documents)+1)
	for _, d := range documents {
		if d.ID == current.ID {
			continue
		}
		extensions = append(extensions, strings.ToLower(filepath.Ext(d.OriginalFilename)))
	}
	extensions = append(extensions, strings.ToLower(filepath.Ext(current.OriginalFilename)))
	return chunker.Select(project.ProjectType, extensions)
}
