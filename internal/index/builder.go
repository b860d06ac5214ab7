package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/embedding"
	"weaver-rag-go/pkg/log"
)

const embedBatchSize = 32

// Builder 负责整体重建项目索引。
// 重建按项目加锁串行化，先写入临时目录再原子替换，
// 查询方要么看到完整的旧快照，要么看到 ErrNoIndex。
type Builder struct {
	rootDir   string
	chunkRepo repository.ChunkRepository
	embedder  embedding.Client

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewBuilder 创建索引构建器。
func NewBuilder(rootDir string, chunkRepo repository.ChunkRepository, embedder embedding.Client) *Builder {
	return &Builder{
		rootDir:   rootDir,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		locks:     make(map[uint]*sync.Mutex),
	}
}

func (b *Builder) projectLock(projectID uint) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[projectID] = l
	}
	return l
}

// Rebuild 用项目当前激活且已处理的分块全量重建索引。
// 没有任何可用分块时删除旧索引并成功返回（之后查询得到 NoIndex）。
// 任何失败都会清理半成品目录，保留旧索引不动。
func (b *Builder) Rebuild(ctx context.Context, projectID uint) error {
	lock := b.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	chunks, err := b.chunkRepo.FindActiveByProject(projectID, 0)
	if err != nil {
		return fmt.Errorf("failed to load chunks for project %d: %w", projectID, err)
	}

	finalDir := ProjectDir(b.rootDir, projectID)
	if len(chunks) == 0 {
		if err := os.RemoveAll(finalDir); err != nil {
			return fmt.Errorf("failed to remove stale index for project %d: %w", projectID, err)
		}
		log.Infof("项目 %d 没有可索引的分块，清空索引", projectID)
		return nil
	}

	tmpDir := finalDir + ".tmp"
	if err := os.RemoveAll(tmpDir); err != nil {
		return err
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return err
	}

	if err := b.buildInto(ctx, tmpDir, chunks); err != nil {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			log.Error("清理半成品索引目录失败", rmErr)
		}
		return err
	}

	// 原子替换：旧目录先删，tmp 改名到位
	if err := os.RemoveAll(finalDir); err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("failed to replace index for project %d: %w", projectID, err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("failed to activate index for project %d: %w", projectID, err)
	}

	log.Infof("项目 %d 索引重建完成，共 %d 个分块，耗时 %v", projectID, len(chunks), time.Since(start))
	return nil
}

func (b *Builder) buildInto(ctx context.Context, dir string, chunks []repository.ChunkWithDocument) error {
	records := make([]ChunkRecord, len(chunks))
	vectors := make([][]float32, 0, len(chunks))

	for i, c := range chunks {
		records[i] = ChunkRecord{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Content,
			FileName:   c.OriginalFilename,
			FilePath:   c.FilePath,
		}
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		batch, err := b.embedder.CreateEmbeddings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding failed at chunk %d: %w", start, err)
		}
		vectors = append(vectors, batch...)
	}

	if err := writeJSON(filepath.Join(dir, indexStoreFile), indexStoreArtifact{Chunks: records}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, vectorStoreFile), vectorStoreArtifact{
		ModelVersion: b.embedder.ModelName(),
		Vectors:      vectors,
	}); err != nil {
		return err
	}

	// 向量回填到分块行，失败只记日志不影响索引本身
	for i, c := range chunks {
		data, err := json.Marshal(vectors[i])
		if err != nil {
			continue
		}
		if err := b.chunkRepo.UpdateEmbedding(c.ID, string(data)); err != nil {
			log.Warnf("分块 %d 向量回填失败: %v", c.ID, err)
		}
	}
	return nil
}

// Remove 删除项目的索引目录，项目删除时调用。
func (b *Builder) Remove(projectID uint) error {
	lock := b.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()
	return os.RemoveAll(ProjectDir(b.rootDir, projectID))
}

// Stats 汇总项目索引目录的磁盘占用和分块数。
func (b *Builder) Stats(projectID uint) (*model.IndexStatsDTO, error) {
	dir := ProjectDir(b.rootDir, projectID)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ErrNoIndex
	}

	store, err := Load(b.rootDir, projectID)
	if err != nil {
		return nil, err
	}

	var sizeBytes int64
	lastModified := info.ModTime()
	filepath.Walk(dir, func(_ string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return nil
		}
		sizeBytes += fi.Size()
		if fi.ModTime().After(lastModified) {
			lastModified = fi.ModTime()
		}
		return nil
	})

	return &model.IndexStatsDTO{
		ProjectID:    projectID,
		ChunkCount:   store.Size(),
		IndexSizeMB:  float64(sizeBytes) / 1024.0 / 1024.0,
		ModelVersion: store.ModelVersion(),
		LastModified: model.LocalTime(lastModified),
	}, nil
}
