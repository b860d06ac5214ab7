package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"weaver-rag-go/internal/service"
	"weaver-rag-go/pkg/log"
)

// DocumentHandler 负责处理所有与文档管理相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// UploadDocument 处理文档上传。文件落库入队后立即返回，处理在后台进行。
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	projectID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}

	document, taskID, err := h.docService.Upload(c.Request.Context(), projectID, fileHeader)
	if err != nil {
		log.Warnf("UploadDocument: failed, projectID=%d, file=%s, err=%v", projectID, fileHeader.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "文档上传成功，正在后台处理",
		"data": gin.H{
			"document": document,
			"task_id":  taskID,
		},
	})
}

// ListDocuments 处理获取项目文档列表的请求。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	projectID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	documents, err := h.docService.ListByProject(projectID)
	if err != nil {
		log.Error("ListDocuments: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文档列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取文档列表成功",
		"data":    documents,
	})
}

// GetDocument 处理获取单个文档详情的请求。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := parseUintParam(c, "docId")
	if !ok {
		return
	}

	document, err := h.docService.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "文档不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取文档详情成功",
		"data":    document,
	})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetDocumentActive 切换文档是否参与检索，并触发后台索引重建。
func (h *DocumentHandler) SetDocumentActive(c *gin.Context) {
	id, ok := parseUintParam(c, "docId")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 is_active 参数"})
		return
	}

	document, err := h.docService.SetActive(id, *req.IsActive)
	if err != nil {
		log.Warnf("SetDocumentActive: failed, id=%d, err=%v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "文档状态更新成功",
		"data":    document,
	})
}

// DeleteDocument 处理删除文档的请求。
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := parseUintParam(c, "docId")
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		log.Warnf("DeleteDocument: failed, id=%d, err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "文档删除成功",
	})
}

// GetProcessingStatus 返回文档的处理进度（processed 标志与分块数）。
func (h *DocumentHandler) GetProcessingStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "docId")
	if !ok {
		return
	}

	status, err := h.docService.ProcessingStatus(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取处理状态成功",
		"data":    status,
	})
}

// GetTaskStatus 通过任务 ID 查询后台处理任务的状态。
func (h *DocumentHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少任务 ID"})
		return
	}

	record, err := h.docService.TaskStatus(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取任务状态成功",
		"data":    record,
	})
}
