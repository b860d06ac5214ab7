package tasks

import (
	"fmt"
	"sync"
	"time"
)

// MemoryStore 是 Store 的内存实现，主要用于测试与单机部署。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*TaskRecord
}

// NewMemoryStore 创建一个新的 MemoryStore 实例。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*TaskRecord)}
}

// Insert 保存一条新的任务记录。
func (s *MemoryStore) Insert(record *TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	cp := *record
	s.records[record.TaskID] = &cp
	return nil
}

// UpdateStatus 更新任务状态与错误信息。
func (s *MemoryStore) UpdateStatus(taskID, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	rec.Status = status
	rec.Error = errMsg
	rec.UpdatedAt = time.Now()
	return nil
}

// Get 按任务 ID 查询任务记录。
func (s *MemoryStore) Get(taskID string) (*TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	cp := *rec
	return &cp, nil
}
