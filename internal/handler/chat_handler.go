package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"weaver-rag-go/internal/service"
	"weaver-rag-go/pkg/log"
)

// ChatHandler 负责处理基于项目知识库的问答请求。
type ChatHandler struct {
	ragService service.RAGService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(ragService service.RAGService) *ChatHandler {
	return &ChatHandler{ragService: ragService}
}

type chatRequest struct {
	ProjectID   uint   `json:"project_id" binding:"required"`
	Message     string `json:"message" binding:"required"`
	Model       string `json:"model"`
	TeamContext string `json:"team_context"`
}

// Query 处理语义检索问答。语义引擎出错时自动切换到降级问答，
// 索引缺失（no_index）是正常状态，原样返回固定答案。
func (h *ChatHandler) Query(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	result := h.ragService.Query(c.Request.Context(), req.ProjectID, req.Message, req.Model)
	if errVal, failed := result.Metadata["error"]; failed && errVal != "no_index" {
		log.Warnf("语义检索失败，切换降级问答: projectID=%d, err=%v", req.ProjectID, errVal)
		result = h.ragService.FallbackQuery(c.Request.Context(), req.ProjectID, req.Message, req.Model, req.TeamContext)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "问答成功",
		"data":    result,
	})
}

// Fallback 直接走降级问答，不经过语义索引。
func (h *ChatHandler) Fallback(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	result := h.ragService.FallbackQuery(c.Request.Context(), req.ProjectID, req.Message, req.Model, req.TeamContext)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "问答成功",
		"data":    result,
	})
}
