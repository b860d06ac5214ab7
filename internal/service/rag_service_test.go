package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/llm"
)

type fakeProjectRepo struct {
	projects map[uint]*model.Project
}

func (r *fakeProjectRepo) Create(p *model.Project) error {
	if r.projects == nil {
		r.projects = make(map[uint]*model.Project)
	}
	p.ID = uint(len(r.projects) + 1)
	r.projects[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) FindByID(id uint) (*model.Project, error) {
	if p, ok := r.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProjectRepo) FindAll() ([]model.Project, error) { return nil, nil }
func (r *fakeProjectRepo) Update(*model.Project) error       { return nil }
func (r *fakeProjectRepo) Delete(uint) error                 { return nil }

type fakeChunkRepo struct {
	chunks []repository.ChunkWithDocument
}

func (r *fakeChunkRepo) BatchCreate([]*model.DocumentChunk) error              { return nil }
func (r *fakeChunkRepo) DeleteByDocumentID(uint) error                         { return nil }
func (r *fakeChunkRepo) CountByDocumentID(uint) (int64, error)                 { return 0, nil }
func (r *fakeChunkRepo) ReplaceForDocument(uint, []*model.DocumentChunk) error { return nil }
func (r *fakeChunkRepo) UpdateEmbedding(uint, string) error                    { return nil }

func (r *fakeChunkRepo) FindActiveByProject(_ uint, limit int) ([]repository.ChunkWithDocument, error) {
	if limit > 0 && limit < len(r.chunks) {
		return r.chunks[:limit], nil
	}
	return r.chunks, nil
}

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedding provider unreachable")
	}
	if strings.Contains(text, "animal") || strings.Contains(text, "cats") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func (f *fakeEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.CreateEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed-v1" }

type fakeGenerator struct {
	fail       bool
	answer     string
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, messages []llm.Message, _ string) (string, error) {
	if f.fail {
		return "", errors.New("generation provider unreachable")
	}
	f.lastPrompt = messages[len(messages)-1].Content
	if f.answer != "" {
		return f.answer, nil
	}
	return "generated answer", nil
}

func seedChunk(id, docID uint, idx int, content, fileName string) repository.ChunkWithDocument {
	c := repository.ChunkWithDocument{OriginalFilename: fileName, FilePath: "uploads/" + fileName}
	c.ID = id
	c.DocumentID = docID
	c.ChunkIndex = idx
	c.Content = content
	return c
}

// buildIndex 用真实构建器在临时目录里产出一份索引
func buildIndex(t *testing.T, root string, projectID uint, chunkRepo *fakeChunkRepo) {
	t.Helper()
	b := index.NewBuilder(root, chunkRepo, &fakeEmbedder{})
	require.NoError(t, b.Rebuild(context.Background(), projectID))
}

func TestQueryNoIndex(t *testing.T) {
	svc := NewRAGService(&fakeProjectRepo{}, &fakeChunkRepo{}, &fakeEmbedder{}, &fakeGenerator{}, t.TempDir())

	result := svc.Query(context.Background(), 1, "anything", "")
	assert.Equal(t, answerNoIndex, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "no_index", result.Metadata["error"])
}

func TestQueryHappyPathCarriesSources(t *testing.T) {
	root := t.TempDir()
	chunkRepo := &fakeChunkRepo{chunks: []repository.ChunkWithDocument{
		seedChunk(1, 10, 0, "cats are small mammals kept as pets", "pets.txt"),
		seedChunk(2, 10, 1, "the stock market closed higher today", "pets.txt"),
	}}
	buildIndex(t, root, 1, chunkRepo)

	gen := &fakeGenerator{answer: "Cats are mentioned."}
	svc := NewRAGService(&fakeProjectRepo{}, chunkRepo, &fakeEmbedder{}, gen, root)

	result := svc.Query(context.Background(), 1, "What animal is mentioned?", "")
	assert.Equal(t, "Cats are mentioned.", result.Answer)
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "pets.txt", result.Sources[0].FileName)
	assert.Greater(t, result.Sources[0].SimilarityScore, similarityCutoff)
	assert.Contains(t, gen.lastPrompt, "cats are small mammals")
	assert.Contains(t, gen.lastPrompt, "What animal is mentioned?")
	// 正交向量的片段被相似度阈值过滤掉
	for _, src := range result.Sources {
		assert.NotContains(t, src.ContentExcerpt, "stock market")
	}
}

func TestQueryExcerptTruncation(t *testing.T) {
	root := t.TempDir()
	long := "cats " + strings.Repeat("x", 400)
	chunkRepo := &fakeChunkRepo{chunks: []repository.ChunkWithDocument{
		seedChunk(1, 10, 0, long, "long.txt"),
	}}
	buildIndex(t, root, 2, chunkRepo)

	svc := NewRAGService(&fakeProjectRepo{}, chunkRepo, &fakeEmbedder{}, &fakeGenerator{}, root)
	result := svc.Query(context.Background(), 2, "cats question about animal", "")
	require.NotEmpty(t, result.Sources)
	exc := result.Sources[0].ContentExcerpt
	assert.True(t, strings.HasSuffix(exc, "..."))
	assert.LessOrEqual(t, len([]rune(exc)), 203)
}

func TestQueryGenerationFailureDegrades(t *testing.T) {
	root := t.TempDir()
	chunkRepo := &fakeChunkRepo{chunks: []repository.ChunkWithDocument{
		seedChunk(1, 10, 0, "cats everywhere", "pets.txt"),
	}}
	buildIndex(t, root, 3, chunkRepo)

	svc := NewRAGService(&fakeProjectRepo{}, chunkRepo, &fakeEmbedder{}, &fakeGenerator{fail: true}, root)
	result := svc.Query(context.Background(), 3, "question about cats", "")
	assert.NotEmpty(t, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Contains(t, result.Metadata, "error")
}

func TestQueryEmbeddingFailureDegrades(t *testing.T) {
	root := t.TempDir()
	chunkRepo := &fakeChunkRepo{chunks: []repository.ChunkWithDocument{
		seedChunk(1, 10, 0, "cats everywhere", "pets.txt"),
	}}
	buildIndex(t, root, 4, chunkRepo)

	svc := NewRAGService(&fakeProjectRepo{}, chunkRepo, &fakeEmbedder{fail: true}, &fakeGenerator{}, root)
	result := svc.Query(context.Background(), 4, "any question", "")
	assert.NotEmpty(t, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Contains(t, result.Metadata, "error")
}

func TestFallbackPromptShape(t *testing.T) {
	long := strings.Repeat("内容", 600)
	chunkRepo := &fakeChunkRepo{chunks: []repository.ChunkWithDocument{
		seedChunk(1, 10, 0, "first chunk content", "a.txt"),
		seedChunk(2, 10, 1, long, "a.txt"),
	}}
	gen := &fakeGenerator{answer: "fallback answer"}
	svc := NewRAGService(&fakeProjectRepo{}, chunkRepo, &fakeEmbedder{}, gen, t.TempDir())

	result := svc.FallbackQuery(context.Background(), 1, "质量如何？", "", "后端团队，负责检索服务")
	assert.Equal(t, "fallback answer", result.Answer)
	assert.Equal(t, "fallback", result.Metadata["mode"])

	assert.Contains(t, gen.lastPrompt, "[doc 1] first chunk content")
	assert.Contains(t, gen.lastPrompt, "[doc 2]")
	assert.Contains(t, gen.lastPrompt, "后端团队")
	assert.Contains(t, gen.lastPrompt, "质量如何？")
	assert.Contains(t, gen.lastPrompt, "[doc 1]。")
	// 单块摘录不超过 500 字
	for _, line := range strings.Split(gen.lastPrompt, "\n") {
		if strings.HasPrefix(line, "[doc 2]") {
			assert.LessOrEqual(t, len([]rune(line)), 510)
		}
	}
}

func TestFallbackLimitsToTenChunks(t *testing.T) {
	repo := &fakeChunkRepo{}
	for i := 0; i < 15; i++ {
		repo.chunks = append(repo.chunks, seedChunk(uint(i+1), 10, i, "chunk content", "a.txt"))
	}
	gen := &fakeGenerator{}
	svc := NewRAGService(&fakeProjectRepo{}, repo, &fakeEmbedder{}, gen, t.TempDir())

	result := svc.FallbackQuery(context.Background(), 1, "q", "", "")
	assert.Equal(t, 10, result.Metadata["chunks_used"])
	assert.Contains(t, gen.lastPrompt, "[doc 10]")
	assert.NotContains(t, gen.lastPrompt, "[doc 11]")
}

func TestFallbackNoChunks(t *testing.T) {
	svc := NewRAGService(&fakeProjectRepo{}, &fakeChunkRepo{}, &fakeEmbedder{}, &fakeGenerator{}, t.TempDir())
	result := svc.FallbackQuery(context.Background(), 1, "q", "", "")
	assert.Equal(t, answerNoContent, result.Answer)
	assert.Empty(t, result.Sources)
}
