package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"weaver-rag-go/internal/index"
	"weaver-rag-go/pkg/log"
)

// IndexHandler 负责索引的手动重建与统计查询。
type IndexHandler struct {
	builder *index.Builder
}

// NewIndexHandler 创建一个新的 IndexHandler 实例。
func NewIndexHandler(builder *index.Builder) *IndexHandler {
	return &IndexHandler{builder: builder}
}

// RebuildIndex 手动触发项目索引重建，重建在后台执行。
func (h *IndexHandler) RebuildIndex(c *gin.Context) {
	projectID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	go func() {
		if err := h.builder.Rebuild(context.Background(), projectID); err != nil {
			log.Errorf("手动索引重建失败: projectID=%d, err=%v", projectID, err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "索引重建已触发",
	})
}

// IndexStats 返回项目索引的磁盘占用、分块数和模型版本。
func (h *IndexHandler) IndexStats(c *gin.Context) {
	projectID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.builder.Stats(projectID)
	if err != nil {
		if errors.Is(err, index.ErrNoIndex) {
			c.JSON(http.StatusOK, gin.H{
				"code":    http.StatusOK,
				"message": "该项目暂无索引",
				"data":    gin.H{"exists": false},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取索引统计失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "获取索引统计成功",
		"data":    stats,
	})
}
