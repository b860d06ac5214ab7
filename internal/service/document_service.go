package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"weaver-rag-go/internal/config"
	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/kafka"
	"weaver-rag-go/pkg/log"
	"weaver-rag-go/pkg/storage"
	"weaver-rag-go/pkg/tasks"
)

// DocumentService 定义了文档上传与生命周期管理的业务逻辑接口。
type DocumentService interface {
	// Upload 校验并保存文件，写入文档记录，投递处理任务后立即返回。
	Upload(ctx context.Context, projectID uint, fileHeader *multipart.FileHeader) (*model.Document, string, error)
	ListByProject(projectID uint) ([]model.Document, error)
	Get(id uint) (*model.Document, error)
	// SetActive 切换文档参与检索的状态并异步重建索引。
	SetActive(id uint, active bool) (*model.Document, error)
	Delete(ctx context.Context, id uint) error
	ProcessingStatus(id uint) (*model.ProcessingStatusDTO, error)
	TaskStatus(taskID string) (*tasks.TaskRecord, error)
}

type documentService struct {
	projectRepo  repository.ProjectRepository
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	builder      *index.Builder
	taskStore    tasks.Store
}

// NewDocumentService 创建文档服务实例。
func NewDocumentService(
	projectRepo repository.ProjectRepository,
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	builder *index.Builder,
	taskStore tasks.Store,
) DocumentService {
	return &documentService{
		projectRepo:  projectRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		builder:      builder,
		taskStore:    taskStore,
	}
}

// Upload 是上传入口。请求在文档记录落库、任务入队后即返回，
// 提取、分块和索引重建全部在后台完成。
func (s *documentService) Upload(ctx context.Context, projectID uint, fileHeader *multipart.FileHeader) (*model.Document, string, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, "", err
	}
	if project == nil {
		return nil, "", fmt.Errorf("project %d not found", projectID)
	}

	if err := validateUpload(fileHeader); err != nil {
		return nil, "", err
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	storedName := uuid.New().String() + ext
	localPath := localUploadPath(storedName)

	if err := saveLocal(fileHeader, localPath); err != nil {
		return nil, "", fmt.Errorf("failed to save uploaded file: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return nil, "", err
	}
	defer src.Close()
	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.PutObject(ctx, config.Conf.MinIO.BucketName, storedName, src, fileHeader.Size, contentType); err != nil {
		os.Remove(localPath)
		return nil, "", fmt.Errorf("failed to store object: %w", err)
	}

	document := &model.Document{
		ProjectID:        projectID,
		FileName:         storedName,
		OriginalFilename: fileHeader.Filename,
		FilePath:         localPath,
		FileSize:         fileHeader.Size,
		MimeType:         contentType,
		IsActive:         true,
		Processed:        false,
	}
	if err := s.documentRepo.Create(document); err != nil {
		os.Remove(localPath)
		return nil, "", err
	}

	taskID := uuid.New().String()
	if err := s.taskStore.Insert(&tasks.TaskRecord{
		TaskID:     taskID,
		DocumentID: document.ID,
		ProjectID:  projectID,
		Status:     tasks.StatusPending,
	}); err != nil {
		log.Warnf("任务记录写入失败: taskID=%s, err=%v", taskID, err)
	}

	task := tasks.DocumentProcessingTask{
		TaskID:     taskID,
		DocumentID: document.ID,
		ProjectID:  projectID,
		FileName:   document.OriginalFilename,
	}
	if err := kafka.ProduceDocumentTask(task); err != nil {
		// 入队失败时文档保留，标记任务失败，可通过手动重建补救
		log.Errorf("文档处理任务入队失败: documentID=%d, err=%v", document.ID, err)
		_ = s.taskStore.UpdateStatus(taskID, tasks.StatusFailed, err.Error())
		return document, taskID, nil
	}

	log.Infof("文档上传成功并已入队: documentID=%d, taskID=%s, file=%s", document.ID, taskID, fileHeader.Filename)
	return document, taskID, nil
}

func (s *documentService) ListByProject(projectID uint) ([]model.Document, error) {
	return s.documentRepo.FindByProjectID(projectID)
}

func (s *documentService) Get(id uint) (*model.Document, error) {
	return s.documentRepo.FindByID(id)
}

// SetActive 切换 is_active 并在后台重建索引，失败只降级检索。
func (s *documentService) SetActive(id uint, active bool) (*model.Document, error) {
	document, err := s.documentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("document %d not found", id)
	}

	document.IsActive = active
	if err := s.documentRepo.Update(document); err != nil {
		return nil, err
	}

	go func(projectID uint) {
		if err := s.builder.Rebuild(context.Background(), projectID); err != nil {
			log.Errorf("切换文档状态后索引重建失败: projectID=%d, err=%v", projectID, err)
		}
	}(document.ProjectID)

	return document, nil
}

// Delete 删除文档及其分块和存储对象，随后在后台重建项目索引。
func (s *documentService) Delete(ctx context.Context, id uint) error {
	document, err := s.documentRepo.FindByID(id)
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("document %d not found", id)
	}

	if err := s.chunkRepo.DeleteByDocumentID(id); err != nil {
		return err
	}
	if err := storage.RemoveObject(ctx, config.Conf.MinIO.BucketName, document.FileName); err != nil {
		log.Warnf("删除存储对象失败: %s, err=%v", document.FileName, err)
	}
	if document.FilePath != "" {
		if err := os.Remove(document.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("删除本地文件失败: %s, err=%v", document.FilePath, err)
		}
	}
	if err := s.documentRepo.Delete(id); err != nil {
		return err
	}

	go func(projectID uint) {
		if err := s.builder.Rebuild(context.Background(), projectID); err != nil {
			log.Errorf("删除文档后索引重建失败: projectID=%d, err=%v", projectID, err)
		}
	}(document.ProjectID)

	log.Infof("文档已删除: id=%d, file=%s", id, document.OriginalFilename)
	return nil
}

func (s *documentService) ProcessingStatus(id uint) (*model.ProcessingStatusDTO, error) {
	document, err := s.documentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("document %d not found", id)
	}

	count, err := s.chunkRepo.CountByDocumentID(id)
	if err != nil {
		return nil, err
	}

	return &model.ProcessingStatusDTO{
		DocumentID: document.ID,
		Filename:   document.OriginalFilename,
		Processed:  document.Processed,
		ChunkCount: int(count),
		FileSize:   document.FileSize,
		CreatedAt:  model.LocalTime(document.CreatedAt),
	}, nil
}

func (s *documentService) TaskStatus(taskID string) (*tasks.TaskRecord, error) {
	return s.taskStore.Get(taskID)
}

// validateUpload 执行扩展名白名单和大小上限校验，核心逻辑看不到不合规文件。
func validateUpload(fileHeader *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed := false
	for _, a := range config.Conf.Upload.AllowedExtensions {
		if ext == strings.ToLower(a) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("unsupported file format: %s", ext)
	}

	maxBytes := int64(config.Conf.Upload.MaxSizeMB) * 1024 * 1024
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return fmt.Errorf("file too large: %d bytes exceeds %dMB limit", fileHeader.Size, config.Conf.Upload.MaxSizeMB)
	}
	return nil
}

func saveLocal(fileHeader *multipart.FileHeader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
