package chunker

import (
	"strings"

	"weaver-rag-go/internal/model"
	"weaver-rag-go/pkg/log"
)

// EmbedFunc 为语义分块提供向量，其它策略忽略它。
type EmbedFunc func(texts []string) ([][]float32, error)

type splitFunc func(text string, p Params) ([]string, error)

var splitters = map[string]splitFunc{
	model.StrategySentence:  splitSentenceStrategy,
	model.StrategyToken:     splitTokenStrategy,
	model.StrategyRecursive: splitRecursiveStrategy,
}

// Split 按策略拆分文本。空白输入返回空切片；
// 策略实现失败或产出为空时静默回退到默认滑动窗口，
// 分块永远不会让文档处理中断。
func Split(text, strategy string, p Params, embed EmbedFunc) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	p = fillDefaults(strategy, p)

	var chunks []string
	var err error
	if strategy == model.StrategySemantic {
		chunks, err = splitSemanticStrategy(text, p, embed)
	} else if fn, ok := splitters[strategy]; ok {
		chunks, err = fn(text, p)
	} else {
		chunks = splitDefault(text, p)
	}

	if err != nil || len(chunks) == 0 {
		if err != nil {
			log.Warnf("策略 %s 分块失败，回退默认分块: %v", strategy, err)
		}
		chunks = splitDefault(text, p)
	}
	return chunks
}

func fillDefaults(strategy string, p Params) Params {
	def := DefaultParams(strategy)
	if p.ChunkSize <= 0 {
		p.ChunkSize = def.ChunkSize
	}
	if p.ChunkOverlap <= 0 {
		p.ChunkOverlap = def.ChunkOverlap
	}
	if p.BreakpointPercentile <= 0 {
		p.BreakpointPercentile = def.BreakpointPercentile
	}
	if p.BufferSize <= 0 {
		p.BufferSize = def.BufferSize
	}
	return p
}

// 默认分块的回溯分隔符，按优先级排列
var defaultDelimiters = []string{"\n\n", "\n", "。", "."}

// splitDefault 固定大小滑动窗口加标点回溯。
// start 每轮至少前进 1，重叠大于等于窗口时也能终止。
func splitDefault(text string, p Params) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + p.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			window := string(runes[start:end])
			for _, d := range defaultDelimiters {
				if idx := strings.LastIndex(window, d); idx > 0 {
					end = start + len([]rune(window[:idx+len(d)]))
					break
				}
			}
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		next := end - p.ChunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	if chunks == nil {
		return []string{}
	}
	return chunks
}

// splitSentences 把文本切成句子，保留终结符。
// 中英文句末标点和换行都算边界。
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}
	for i, r := range runes {
		cur.WriteRune(r)
		switch r {
		case '。', '！', '？', '!', '?', '\n':
			flush()
		case '.':
			// 小数点和缩写不截断，后面跟空白才算句末
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				flush()
			}
		}
	}
	flush()
	return sentences
}
