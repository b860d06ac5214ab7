package repository

import (
	"weaver-rag-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档相关的数据持久化操作。
type DocumentRepository interface {
	Create(document *model.Document) error
	FindByID(id uint) (*model.Document, error)
	FindByProjectID(projectID uint) ([]model.Document, error)
	// FindActiveProcessed 返回项目内 is_active 且 processed 的文档，
	// 这是索引重建的候选集合。
	FindActiveProcessed(projectID uint) ([]model.Document, error)
	Update(document *model.Document) error
	MarkProcessed(id uint) error
	Delete(id uint) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一个新的文档记录。
func (r *documentRepository) Create(document *model.Document) error {
	return r.db.Create(document).Error
}

// FindByID 根据 ID 检索文档记录。
func (r *documentRepository) FindByID(id uint) (*model.Document, error) {
	var document model.Document
	if err := r.db.First(&document, id).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

// FindByProjectID 返回项目内的全部文档，按创建时间倒序。
func (r *documentRepository) FindByProjectID(projectID uint) ([]model.Document, error) {
	var documents []model.Document
	err := r.db.Where("project_id = ?", projectID).Order("created_at desc").Find(&documents).Error
	return documents, err
}

// FindActiveProcessed 返回项目内激活且已完成分块的文档。
func (r *documentRepository) FindActiveProcessed(projectID uint) ([]model.Document, error) {
	var documents []model.Document
	err := r.db.Where("project_id = ? AND is_active = ? AND processed = ?", projectID, true, true).
		Order("id asc").Find(&documents).Error
	return documents, err
}

// Update 保存文档记录的全部字段。
func (r *documentRepository) Update(document *model.Document) error {
	return r.db.Save(document).Error
}

// MarkProcessed 将文档标记为已完成分块。
func (r *documentRepository) MarkProcessed(id uint) error {
	return r.db.Model(&model.Document{}).Where("id = ?", id).Update("processed", true).Error
}

// Delete 删除指定文档记录。
func (r *documentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Document{}, id).Error
}
