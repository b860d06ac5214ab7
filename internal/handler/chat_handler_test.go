package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver-rag-go/internal/model"
)

type stubRAGService struct {
	queryResult    *model.QueryResult
	fallbackResult *model.QueryResult
	fallbackCalled bool
}

func (s *stubRAGService) Query(context.Context, uint, string, string) *model.QueryResult {
	return s.queryResult
}

func (s *stubRAGService) FallbackQuery(context.Context, uint, string, string, string) *model.QueryResult {
	s.fallbackCalled = true
	return s.fallbackResult
}

func performChat(t *testing.T, h *ChatHandler, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/chat/query", h.Query)
	r.POST("/api/v1/chat/fallback", h.Fallback)

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatQuerySuccess(t *testing.T) {
	stub := &stubRAGService{
		queryResult: &model.QueryResult{
			Answer:   "the answer",
			Sources:  []model.SourceRecord{{FileName: "a.txt"}},
			Metadata: map[string]interface{}{"chunks_used": 1},
		},
	}
	w := performChat(t, NewChatHandler(stub), "/api/v1/chat/query", map[string]interface{}{
		"project_id": 1,
		"message":    "question",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, stub.fallbackCalled)
	assert.Contains(t, w.Body.String(), "the answer")
	assert.Contains(t, w.Body.String(), "a.txt")
}

func TestChatQueryFallsBackOnEngineError(t *testing.T) {
	stub := &stubRAGService{
		queryResult: &model.QueryResult{
			Answer:   "degraded",
			Sources:  []model.SourceRecord{},
			Metadata: map[string]interface{}{"error": "provider unreachable"},
		},
		fallbackResult: &model.QueryResult{
			Answer:   "fallback answer",
			Sources:  []model.SourceRecord{},
			Metadata: map[string]interface{}{"mode": "fallback"},
		},
	}
	w := performChat(t, NewChatHandler(stub), "/api/v1/chat/query", map[string]interface{}{
		"project_id": 1,
		"message":    "question",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.fallbackCalled)
	assert.Contains(t, w.Body.String(), "fallback answer")
}

func TestChatQueryNoIndexIsNotAFailure(t *testing.T) {
	stub := &stubRAGService{
		queryResult: &model.QueryResult{
			Answer:   "该项目还没有可用的索引",
			Sources:  []model.SourceRecord{},
			Metadata: map[string]interface{}{"error": "no_index"},
		},
	}
	w := performChat(t, NewChatHandler(stub), "/api/v1/chat/query", map[string]interface{}{
		"project_id": 1,
		"message":    "question",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, stub.fallbackCalled)
}

func TestChatQueryBadRequest(t *testing.T) {
	stub := &stubRAGService{}
	w := performChat(t, NewChatHandler(stub), "/api/v1/chat/query", map[string]interface{}{
		"project_id": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatFallbackEndpoint(t *testing.T) {
	stub := &stubRAGService{
		fallbackResult: &model.QueryResult{
			Answer:   "flat answer",
			Sources:  []model.SourceRecord{},
			Metadata: map[string]interface{}{"mode": "fallback"},
		},
	}
	w := performChat(t, NewChatHandler(stub), "/api/v1/chat/fallback", map[string]interface{}{
		"project_id": 2,
		"message":    "question",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.fallbackCalled)
	assert.Contains(t, w.Body.String(), "flat answer")
}
