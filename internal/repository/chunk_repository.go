package repository

import (
	"weaver-rag-go/internal/model"

	"gorm.io/gorm"
)

// ChunkWithDocument 把分块和它所属文档的元数据拼在一起，供索引构建使用。
type ChunkWithDocument struct {
	model.DocumentChunk
	OriginalFilename string `gorm:"column:original_filename"`
	FilePath         string `gorm:"column:file_path"`
}

// ChunkRepository 定义了对 document_chunks 表的数据操作接口。
type ChunkRepository interface {
	BatchCreate(chunks []*model.DocumentChunk) error
	DeleteByDocumentID(documentID uint) error
	CountByDocumentID(documentID uint) (int64, error)
	// ReplaceForDocument 在一个事务内删除文档的旧分块并写入新分块（整体替换，幂等）。
	ReplaceForDocument(documentID uint, chunks []*model.DocumentChunk) error
	// FindActiveByProject 返回项目内激活且已处理文档的分块，
	// 按 (document_id, chunk_index) 排序；limit <= 0 时不限制数量。
	FindActiveByProject(projectID uint, limit int) ([]ChunkWithDocument, error)
	UpdateEmbedding(chunkID uint, embedding string) error
}

// chunkRepository 是 ChunkRepository 接口的 GORM 实现。
type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// BatchCreate 批量创建分块记录。
func (r *chunkRepository) BatchCreate(chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error // 每100条记录一批
}

// DeleteByDocumentID 删除指定文档的所有分块记录。
func (r *chunkRepository) DeleteByDocumentID(documentID uint) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error
}

// CountByDocumentID 统计指定文档的分块数量。
func (r *chunkRepository) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.DocumentChunk{}).Where("document_id = ?", documentID).Count(&count).Error
	return count, err
}

// ReplaceForDocument 整体替换文档分块，避免重复处理导致的累计膨胀。
func (r *chunkRepository) ReplaceForDocument(documentID uint, chunks []*model.DocumentChunk) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

// FindActiveByProject 返回项目内激活且已处理文档的分块（连表取文件名与路径）。
func (r *chunkRepository) FindActiveByProject(projectID uint, limit int) ([]ChunkWithDocument, error) {
	var chunks []ChunkWithDocument
	q := r.db.Table("document_chunks").
		Select("document_chunks.*, documents.original_filename, documents.file_path").
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.project_id = ? AND documents.is_active = ? AND documents.processed = ?", projectID, true, true).
		Order("document_chunks.document_id asc, document_chunks.chunk_index asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&chunks).Error
	return chunks, err
}

// UpdateEmbedding 回填分块的序列化向量。
func (r *chunkRepository) UpdateEmbedding(chunkID uint, embedding string) error {
	return r.db.Model(&model.DocumentChunk{}).Where("id = ?", chunkID).Update("embedding", embedding).Error
}
