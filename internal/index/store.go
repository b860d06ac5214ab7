package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoIndex 表示项目当前没有可查询的索引，是合法状态而非故障。
var ErrNoIndex = errors.New("no index for this project")

const (
	indexStoreFile  = "index_store.json"
	vectorStoreFile = "vector_store.json"
)

// ChunkRecord 是索引文件里的一条分块记录。
type ChunkRecord struct {
	ChunkID    uint   `json:"chunk_id"`
	DocumentID uint   `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
}

type indexStoreArtifact struct {
	Chunks []ChunkRecord `json:"chunks"`
}

type vectorStoreArtifact struct {
	ModelVersion string      `json:"model_version"`
	Vectors      [][]float32 `json:"vectors"`
}

// Store 是某个项目索引的内存快照，只读。
type Store struct {
	chunks       []ChunkRecord
	vectors      [][]float32
	modelVersion string
}

// SearchResult 是一次最近邻检索的命中。
type SearchResult struct {
	Record ChunkRecord
	Score  float64
}

// ProjectDir 返回项目索引的保留目录。
func ProjectDir(root string, projectID uint) string {
	return filepath.Join(root, fmt.Sprintf("project_%d", projectID))
}

// Load 加载项目的索引快照。目录或任一文件缺失、
// 两个文件记录数不一致时返回 ErrNoIndex。
func Load(root string, projectID uint) (*Store, error) {
	dir := ProjectDir(root, projectID)

	var idx indexStoreArtifact
	if err := readJSON(filepath.Join(dir, indexStoreFile), &idx); err != nil {
		return nil, ErrNoIndex
	}
	var vec vectorStoreArtifact
	if err := readJSON(filepath.Join(dir, vectorStoreFile), &vec); err != nil {
		return nil, ErrNoIndex
	}
	if len(idx.Chunks) == 0 || len(idx.Chunks) != len(vec.Vectors) {
		return nil, ErrNoIndex
	}

	return &Store{chunks: idx.Chunks, vectors: vec.Vectors, modelVersion: vec.ModelVersion}, nil
}

// Search 对快照做暴力余弦检索，按相似度降序返回前 topK 条。
func (s *Store) Search(vector []float32, topK int) []SearchResult {
	results := make([]SearchResult, 0, len(s.chunks))
	for i, record := range s.chunks {
		results = append(results, SearchResult{
			Record: record,
			Score:  cosineSimilarity(vector, s.vectors[i]),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Size 返回快照内的分块数。
func (s *Store) Size() int {
	return len(s.chunks)
}

// ModelVersion 返回构建该索引使用的嵌入模型版本。
func (s *Store) ModelVersion() string {
	return s.modelVersion
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
