package model

// SourceRecord 描述一条回答引用的来源分块。
type SourceRecord struct {
	FileName        string  `json:"fileName"`
	FilePath        string  `json:"filePath"`
	SimilarityScore float64 `json:"similarityScore"`
	ContentExcerpt  string  `json:"contentExcerpt"`
}

// QueryResult 是检索问答的统一返回结构。
// 检索或生成失败时 Answer 携带降级说明，Metadata 中带 error 键，永不抛出。
type QueryResult struct {
	Answer   string                 `json:"answer"`
	Sources  []SourceRecord         `json:"sources"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ProcessingStatusDTO 描述单个文档的处理进度。
type ProcessingStatusDTO struct {
	DocumentID uint      `json:"documentId"`
	Filename   string    `json:"filename"`
	Processed  bool      `json:"processed"`
	ChunkCount int       `json:"chunkCount"`
	FileSize   int64     `json:"fileSize"`
	CreatedAt  LocalTime `json:"createdAt"`
}

// IndexStatsDTO 描述项目索引目录的统计信息。
type IndexStatsDTO struct {
	ProjectID    uint      `json:"projectId"`
	ChunkCount   int       `json:"chunkCount"`
	IndexSizeMB  float64   `json:"indexSizeMb"`
	ModelVersion string    `json:"modelVersion"`
	LastModified LocalTime `json:"lastModified"`
}
