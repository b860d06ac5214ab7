// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 支持的分块策略名称。
const (
	StrategySentence  = "sentence"
	StrategySemantic  = "semantic"
	StrategyToken     = "token"
	StrategyRecursive = "recursive"
	StrategyDefault   = "default"
)

// Project 对应于数据库中的 'projects' 表。
// 一个项目拥有若干文档，并独占一个向量索引目录。
type Project struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// ProjectType 是用户声明的项目类型（自由文本），用于分块策略的自动选择。
	ProjectType string `gorm:"type:varchar(100)" json:"projectType"`
	// ChunkingStrategy 是显式配置的分块策略，为空时由选择器自动决定。
	ChunkingStrategy string `gorm:"type:varchar(30)" json:"chunkingStrategy"`
	// ChunkingParams 是策略参数包（JSON 字符串），如 chunk_size/overlap。
	ChunkingParams string    `gorm:"type:text" json:"chunkingParams"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Project) TableName() string {
	return "projects"
}
