// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"weaver-rag-go/internal/service"
	"weaver-rag-go/pkg/log"
)

// ProjectHandler 负责处理所有与项目管理相关的 API 请求。
type ProjectHandler struct {
	projectService service.ProjectService
}

// NewProjectHandler 创建一个新的 ProjectHandler 实例。
func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type projectRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ProjectType      string `json:"project_type"`
	ChunkingStrategy string `json:"chunking_strategy"`
	ChunkingParams   string `json:"chunking_params"`
}

// CreateProject 处理创建项目的请求。
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	project, err := h.projectService.CreateProject(req.Name, req.Description, req.ProjectType, req.ChunkingStrategy, req.ChunkingParams)
	if err != nil {
		log.Warnf("CreateProject: failed, name=%s, err=%v", req.Name, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "项目创建成功",
		"data":    project,
	})
}

// ListProjects 处理获取项目列表的请求。
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects()
	if err != nil {
		log.Error("ListProjects: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取项目列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取项目列表成功",
		"data":    projects,
	})
}

// GetProject 处理获取单个项目详情的请求。
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取项目详情成功",
		"data":    project,
	})
}

// UpdateProject 处理更新项目的请求。
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	project, err := h.projectService.UpdateProject(id, req.Name, req.Description, req.ProjectType, req.ChunkingStrategy, req.ChunkingParams)
	if err != nil {
		log.Warnf("UpdateProject: failed, id=%d, err=%v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "项目更新成功",
		"data":    project,
	})
}

// DeleteProject 处理删除项目的请求，级联清理文档、分块和索引。
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), id); err != nil {
		log.Warnf("DeleteProject: failed, id=%d, err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "项目删除成功",
	})
}

// parseUintParam 解析路径中的数字参数，失败时直接写入 400 响应。
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 " + name + " 参数"})
		return 0, false
	}
	return uint(v), true
}
