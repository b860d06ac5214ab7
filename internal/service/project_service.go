package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"weaver-rag-go/internal/config"
	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/pkg/log"
	"weaver-rag-go/pkg/storage"
)

var validStrategies = map[string]struct{}{
	model.StrategySentence:  {},
	model.StrategySemantic:  {},
	model.StrategyToken:     {},
	model.StrategyRecursive: {},
	model.StrategyDefault:   {},
}

// ProjectService 定义了项目管理的业务逻辑接口。
type ProjectService interface {
	CreateProject(name, description, projectType, strategy, paramsJSON string) (*model.Project, error)
	GetProject(id uint) (*model.Project, error)
	ListProjects() ([]model.Project, error)
	UpdateProject(id uint, name, description, projectType, strategy, paramsJSON string) (*model.Project, error)
	DeleteProject(ctx context.Context, id uint) error
}

type projectService struct {
	projectRepo  repository.ProjectRepository
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	builder      *index.Builder
}

// NewProjectService 创建项目服务实例。
func NewProjectService(
	projectRepo repository.ProjectRepository,
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	builder *index.Builder,
) ProjectService {
	return &projectService{
		projectRepo:  projectRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		builder:      builder,
	}
}

// CreateProject 创建项目。策略可以留空，留空时上传文档后由选择器自动决定。
func (s *projectService) CreateProject(name, description, projectType, strategy, paramsJSON string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if err := validateStrategy(strategy); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:             name,
		Description:      description,
		ProjectType:      projectType,
		ChunkingStrategy: strategy,
		ChunkingParams:   paramsJSON,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}
	log.Infof("项目创建成功: id=%d, name=%s", project.ID, project.Name)
	return project, nil
}

func (s *projectService) GetProject(id uint) (*model.Project, error) {
	return s.projectRepo.FindByID(id)
}

func (s *projectService) ListProjects() ([]model.Project, error) {
	return s.projectRepo.FindAll()
}

// UpdateProject 更新项目信息。修改分块配置不会自动触发重建，
// 新配置只在下一次文档处理时生效。
func (s *projectService) UpdateProject(id uint, name, description, projectType, strategy, paramsJSON string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %d not found", id)
	}
	if err := validateStrategy(strategy); err != nil {
		return nil, err
	}

	if name != "" {
		project.Name = name
	}
	project.Description = description
	project.ProjectType = projectType
	project.ChunkingStrategy = strategy
	project.ChunkingParams = paramsJSON
	if err := s.projectRepo.Update(project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject 删除项目及其全部派生物：分块、存储对象、本地文件、索引目录。
func (s *projectService) DeleteProject(ctx context.Context, id uint) error {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %d not found", id)
	}

	documents, err := s.documentRepo.FindByProjectID(id)
	if err != nil {
		return err
	}
	for _, doc := range documents {
		if err := s.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
			return err
		}
		if err := storage.RemoveObject(ctx, config.Conf.MinIO.BucketName, doc.FileName); err != nil {
			log.Warnf("删除存储对象失败: %s, err=%v", doc.FileName, err)
		}
		if doc.FilePath != "" {
			if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
				log.Warnf("删除本地文件失败: %s, err=%v", doc.FilePath, err)
			}
		}
		if err := s.documentRepo.Delete(doc.ID); err != nil {
			return err
		}
	}

	if err := s.builder.Remove(id); err != nil {
		log.Warnf("删除项目索引目录失败: projectID=%d, err=%v", id, err)
	}
	if err := s.projectRepo.Delete(id); err != nil {
		return err
	}
	log.Infof("项目已删除: id=%d, 关联文档 %d 个", id, len(documents))
	return nil
}

func validateStrategy(strategy string) error {
	if strategy == "" {
		return nil
	}
	if _, ok := validStrategies[strategy]; !ok {
		return fmt.Errorf("unknown chunking strategy: %s", strategy)
	}
	return nil
}

// 本地上传目录里文档的落盘路径
func localUploadPath(storedName string) string {
	return filepath.Join(config.Conf.Upload.Dir, storedName)
}
