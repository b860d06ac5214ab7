// Package tasks 定义了后台文档处理任务的结构与状态存储抽象。
package tasks

import "time"

// 任务状态常量。
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DocumentProcessingTask represents the data structure for a document processing job.
type DocumentProcessingTask struct {
	TaskID     string `json:"task_id"`
	DocumentID uint   `json:"document_id"`
	ProjectID  uint   `json:"project_id"`
	FileName   string `json:"file_name"`
}

// TaskRecord 记录一个后台任务的执行状态。
type TaskRecord struct {
	TaskID     string    `json:"task_id"`
	DocumentID uint      `json:"document_id"`
	ProjectID  uint      `json:"project_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store 抽象了任务状态的存取，便于在内存、Redis 或数据库之间切换实现。
type Store interface {
	Insert(record *TaskRecord) error
	UpdateStatus(taskID, status, errMsg string) error
	Get(taskID string) (*TaskRecord, error)
}
