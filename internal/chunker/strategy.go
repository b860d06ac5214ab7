package chunker

import (
	"encoding/json"
	"strings"

	"weaver-rag-go/internal/model"
)

// Params 分块参数，未设置的字段在拆分前会回填对应策略的默认值。
type Params struct {
	ChunkSize            int     `json:"chunk_size"`
	ChunkOverlap         int     `json:"chunk_overlap"`
	TopK                 int     `json:"top_k"`
	BreakpointPercentile float64 `json:"breakpoint_percentile_threshold"`
	BufferSize           int     `json:"buffer_size"`
}

// DefaultParams 返回指定策略的默认分块参数。
func DefaultParams(strategy string) Params {
	switch strategy {
	case model.StrategySentence, model.StrategyToken:
		return Params{ChunkSize: 512, ChunkOverlap: 50}
	case model.StrategySemantic:
		return Params{ChunkSize: 1024, ChunkOverlap: 128, BreakpointPercentile: 95, BufferSize: 1}
	case model.StrategyRecursive:
		return Params{ChunkSize: 1000, ChunkOverlap: 100}
	default:
		return Params{ChunkSize: 1000, ChunkOverlap: 100}
	}
}

// ResolveParams 把项目配置里的 JSON 参数合并到策略默认值之上，
// 非法 JSON 和非正数值一律忽略。
func ResolveParams(strategy, paramsJSON string) Params {
	p := DefaultParams(strategy)
	if strings.TrimSpace(paramsJSON) == "" {
		return p
	}
	var override Params
	if err := json.Unmarshal([]byte(paramsJSON), &override); err != nil {
		return p
	}
	if override.ChunkSize > 0 {
		p.ChunkSize = override.ChunkSize
	}
	if override.ChunkOverlap > 0 {
		p.ChunkOverlap = override.ChunkOverlap
	}
	if override.TopK > 0 {
		p.TopK = override.TopK
	}
	if override.BreakpointPercentile > 0 {
		p.BreakpointPercentile = override.BreakpointPercentile
	}
	if override.BufferSize > 0 {
		p.BufferSize = override.BufferSize
	}
	return p
}

// Select 根据项目类型关键词和文件扩展名分布选择分块策略。
// 项目显式配置了策略时由调用方直接使用，不会走到这里。
// 相同输入永远得到相同结果。
func Select(projectType string, extensions []string) string {
	t := strings.ToLower(projectType)
	switch {
	case strings.Contains(t, "research") || strings.Contains(t, "academic"):
		return model.StrategySemantic
	case strings.Contains(t, "legal") || strings.Contains(t, "contract"):
		return model.StrategySentence
	case strings.Contains(t, "technical") || strings.Contains(t, "manual"):
		return model.StrategyRecursive
	case strings.Contains(t, "code") || strings.Contains(t, "development"):
		return model.StrategyToken
	}

	if total := len(extensions); total > 0 {
		counts := make(map[string]int, 4)
		for _, ext := range extensions {
			counts[strings.ToLower(ext)]++
		}
		ratio := func(ext string) float64 {
			return float64(counts[ext]) / float64(total)
		}
		switch {
		case ratio(".pdf") > 0.5:
			return model.StrategySentence
		case ratio(".md") > 0.3:
			return model.StrategyRecursive
		case ratio(".docx") > 0.4:
			return model.StrategySentence
		}
	}
	return model.StrategySentence
}

// TopKForProjectType 按项目类型返回检索候选数量。
func TopKForProjectType(projectType string) int {
	t := strings.ToLower(projectType)
	switch {
	case strings.Contains(t, "research") || strings.Contains(t, "academic"):
		return 8
	case strings.Contains(t, "technical") || strings.Contains(t, "manual"):
		return 10
	default:
		return 6
	}
}
