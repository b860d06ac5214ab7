// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Document 对应于数据库中的 'documents' 表。
// 它记录每个上传文档的元数据和处理状态。
type Document struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID uint `gorm:"index;not null" json:"projectId"`
	// FileName 是存储用的唯一文件名（uuid + 扩展名）。
	FileName string `gorm:"type:varchar(255);not null" json:"fileName"`
	// OriginalFilename 是用户上传时的原始文件名。
	OriginalFilename string `gorm:"type:varchar(255);not null" json:"originalFilename"`
	// FilePath 是原始文件在本地磁盘的路径（抽取时读取）。
	FilePath string `gorm:"type:varchar(500);not null" json:"filePath"`
	FileSize int64  `gorm:"not null" json:"fileSize"`
	MimeType string `gorm:"type:varchar(100);not null" json:"mimeType"`
	// IsActive 标记文档是否参与检索上下文。
	IsActive bool `gorm:"not null;default:true" json:"isActive"`
	// Processed 在分块成功完成后置为 true。
	Processed bool      `gorm:"not null;default:false" json:"processed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// DocumentChunk 对应于数据库中的 'document_chunks' 表。
// 分块由处理管道批量创建；文档重新处理时整体删除重建，从不原地修改。
type DocumentChunk struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID uint   `gorm:"index;not null" json:"documentId"`
	ChunkIndex int    `gorm:"not null" json:"chunkIndex"`
	Content    string `gorm:"type:text;not null" json:"content"`
	// Embedding 是分块向量的 JSON 序列化表示，索引构建后回填。
	Embedding string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentChunk) TableName() string {
	return "document_chunks"
}
