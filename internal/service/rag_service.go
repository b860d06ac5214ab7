package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"weaver-rag-go/internal/chunker"
	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/embedding"
	"weaver-rag-go/pkg/llm"
	"weaver-rag-go/pkg/log"
)

// 相似度低于该值的命中一律丢弃，阈值刻意宽松，过严会饿死上下文
const similarityCutoff = 0.2

const (
	answerNoIndex   = "该项目还没有可用的索引，请先上传文档并等待处理完成。"
	answerNoMatch   = "知识库中没有找到与问题相关的内容。"
	answerNoContent = "该项目还没有任何可用的文档内容。"
)

// RAGService 提供基于项目索引的检索问答，以及索引不可用时的平铺降级问答。
// 两个方法都只返回结果，检索和生成的任何失败都折叠进 QueryResult，不向上抛。
type RAGService interface {
	Query(ctx context.Context, projectID uint, question, modelName string) *model.QueryResult
	FallbackQuery(ctx context.Context, projectID uint, question, modelName, teamContext string) *model.QueryResult
}

type ragService struct {
	projectRepo repository.ProjectRepository
	chunkRepo   repository.ChunkRepository
	embedder    embedding.Client
	generator   llm.Client
	indexRoot   string
}

// NewRAGService 创建检索问答服务。
func NewRAGService(
	projectRepo repository.ProjectRepository,
	chunkRepo repository.ChunkRepository,
	embedder embedding.Client,
	generator llm.Client,
	indexRoot string,
) RAGService {
	return &ragService{
		projectRepo: projectRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		generator:   generator,
		indexRoot:   indexRoot,
	}
}

// Query 执行一次语义检索问答。
// 索引缺失返回固定答案；检索或生成失败返回携带错误说明的降级结果。
func (s *ragService) Query(ctx context.Context, projectID uint, question, modelName string) *model.QueryResult {
	store, err := index.Load(s.indexRoot, projectID)
	if err != nil {
		if errors.Is(err, index.ErrNoIndex) {
			return &model.QueryResult{
				Answer:  answerNoIndex,
				Sources: []model.SourceRecord{},
				Metadata: map[string]interface{}{
					"error": "no_index",
				},
			}
		}
		return degradedResult("加载索引失败", err)
	}

	questionVec, err := s.embedder.CreateEmbedding(ctx, question)
	if err != nil {
		log.Errorf("问题向量化失败: projectID=%d, err=%v", projectID, err)
		return degradedResult("问题向量化失败", err)
	}

	topK := s.resolveTopK(projectID)
	hits := store.Search(questionVec, topK)
	survivors := hits[:0]
	for _, h := range hits {
		if h.Score >= similarityCutoff {
			survivors = append(survivors, h)
		}
	}
	if len(survivors) == 0 {
		return &model.QueryResult{
			Answer:  answerNoMatch,
			Sources: []model.SourceRecord{},
			Metadata: map[string]interface{}{
				"matches": 0,
				"top_k":   topK,
			},
		}
	}

	prompt := buildSynthesisPrompt(question, survivors)
	answer, err := s.generator.Generate(ctx, []llm.Message{
		{Role: "system", Content: "你是一个基于给定资料回答问题的助手，只依据资料作答，不要编造。"},
		{Role: "user", Content: prompt},
	}, modelName)
	if err != nil {
		log.Errorf("答案生成失败: projectID=%d, err=%v", projectID, err)
		return degradedResult("答案生成失败", err)
	}

	sources := make([]model.SourceRecord, 0, len(survivors))
	for _, h := range survivors {
		sources = append(sources, model.SourceRecord{
			FileName:        h.Record.FileName,
			FilePath:        h.Record.FilePath,
			SimilarityScore: h.Score,
			ContentExcerpt:  excerpt(h.Record.Text, 200),
		})
	}

	return &model.QueryResult{
		Answer:  answer,
		Sources: sources,
		Metadata: map[string]interface{}{
			"chunks_used":   len(survivors),
			"top_k":         topK,
			"model_version": store.ModelVersion(),
		},
	}
}

// resolveTopK 优先使用项目参数里显式配置的 top_k，否则按项目类型取档位。
func (s *ragService) resolveTopK(projectID uint) int {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil || project == nil {
		return chunker.TopKForProjectType("")
	}
	strategy := project.ChunkingStrategy
	if strategy == "" {
		strategy = model.StrategyDefault
	}
	params := chunker.ResolveParams(strategy, project.ChunkingParams)
	if params.TopK > 0 {
		return params.TopK
	}
	return chunker.TopKForProjectType(project.ProjectType)
}

// buildSynthesisPrompt 把去重后的命中分块拼成紧凑的上下文提示词。
func buildSynthesisPrompt(question string, hits []index.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("请根据以下资料回答问题。\n\n资料：\n")
	seen := make(map[string]struct{}, len(hits))
	n := 0
	for _, h := range hits {
		text := strings.TrimSpace(h.Record.Text)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		n++
		sb.WriteString(fmt.Sprintf("--- 片段 %d（来自 %s）---\n%s\n\n", n, h.Record.FileName, text))
	}
	sb.WriteString("问题：")
	sb.WriteString(question)
	sb.WriteString("\n\n请给出简洁准确的回答。")
	return sb.String()
}

// FallbackQuery 在语义引擎不可用时使用：不做相关性排序，
// 直接取最多 10 个分块平铺进提示词。
func (s *ragService) FallbackQuery(ctx context.Context, projectID uint, question, modelName, teamContext string) *model.QueryResult {
	chunks, err := s.chunkRepo.FindActiveByProject(projectID, 10)
	if err != nil {
		log.Errorf("降级问答加载分块失败: projectID=%d, err=%v", projectID, err)
		return degradedResult("加载文档内容失败", err)
	}
	if len(chunks) == 0 {
		return &model.QueryResult{
			Answer:  answerNoContent,
			Sources: []model.SourceRecord{},
			Metadata: map[string]interface{}{
				"mode":    "fallback",
				"matches": 0,
			},
		}
	}

	prompt := buildFallbackPrompt(question, teamContext, chunks)
	answer, err := s.generator.Generate(ctx, []llm.Message{
		{Role: "user", Content: prompt},
	}, modelName)
	if err != nil {
		log.Errorf("降级问答生成失败: projectID=%d, err=%v", projectID, err)
		return degradedResult("答案生成失败", err)
	}

	return &model.QueryResult{
		Answer:  answer,
		Sources: []model.SourceRecord{},
		Metadata: map[string]interface{}{
			"mode":        "fallback",
			"chunks_used": len(chunks),
		},
	}
}

// buildFallbackPrompt 组装平铺提示词：
// 固定前言、可选团队背景、编号为 [doc k] 的 500 字以内摘录、问题和引用格式要求。
func buildFallbackPrompt(question, teamContext string, chunks []repository.ChunkWithDocument) string {
	var sb strings.Builder
	sb.WriteString("你是一个项目知识助手，请仅依据下面提供的文档片段回答问题。\n\n")
	if strings.TrimSpace(teamContext) != "" {
		sb.WriteString("团队背景：\n")
		sb.WriteString(strings.TrimSpace(teamContext))
		sb.WriteString("\n\n")
	}
	sb.WriteString("文档片段：\n")
	for i, c := range chunks {
		sb.WriteString(fmt.Sprintf("[doc %d] %s\n", i+1, excerptPlain(c.Content, 500)))
	}
	sb.WriteString("\n问题：")
	sb.WriteString(question)
	sb.WriteString("\n\n回答时请标注引用了哪些文档编号，如 [doc 1]。")
	return sb.String()
}

func degradedResult(reason string, err error) *model.QueryResult {
	return &model.QueryResult{
		Answer:  fmt.Sprintf("%s，请稍后重试。", reason),
		Sources: []model.SourceRecord{},
		Metadata: map[string]interface{}{
			"error": err.Error(),
		},
	}
}

// excerpt 截取前 n 个字符，截断时追加省略号。
func excerpt(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

func excerptPlain(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
