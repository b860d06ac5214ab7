package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 任务记录在 Redis 中保留的时长。
const recordTTL = 24 * time.Hour

// RedisStore 是 Store 的 Redis 实现，任务状态以 JSON 值存储并带过期时间。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建一个新的 RedisStore 实例。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(taskID string) string {
	return "tasks:document:" + taskID
}

// Insert 保存一条新的任务记录。
func (s *RedisStore) Insert(record *TaskRecord) error {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	return s.save(record)
}

// UpdateStatus 更新任务状态与错误信息。
func (s *RedisStore) UpdateStatus(taskID, status, errMsg string) error {
	rec, err := s.Get(taskID)
	if err != nil {
		return err
	}
	rec.Status = status
	rec.Error = errMsg
	rec.UpdatedAt = time.Now()
	return s.save(rec)
}

// Get 按任务 ID 查询任务记录。
func (s *RedisStore) Get(taskID string) (*TaskRecord, error) {
	val, err := s.client.Get(context.Background(), s.key(taskID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("task %s not found", taskID)
		}
		return nil, err
	}
	var rec TaskRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("无法解析任务记录 %s: %w", taskID, err)
	}
	return &rec, nil
}

func (s *RedisStore) save(record *TaskRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(context.Background(), s.key(record.TaskID), b, recordTTL).Err()
}
