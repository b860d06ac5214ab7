package chunker

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// splitSemanticStrategy 在嵌入距离突变处断块：
// 句子加上前后 BufferSize 句拼成滑动组，组间余弦距离超过
// 百分位阈值的位置就是块边界。没有嵌入函数时交由调用方回退。
func splitSemanticStrategy(text string, p Params, embed EmbedFunc) ([]string, error) {
	if embed == nil {
		return nil, errors.New("semantic splitter requires an embed function")
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) == 1 {
		return sentences, nil
	}

	groups := make([]string, len(sentences))
	for i := range sentences {
		lo := i - p.BufferSize
		if lo < 0 {
			lo = 0
		}
		hi := i + p.BufferSize + 1
		if hi > len(sentences) {
			hi = len(sentences)
		}
		groups[i] = strings.Join(sentences[lo:hi], " ")
	}

	vectors, err := embed(groups)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(groups) {
		return nil, errors.New("embedding count mismatch")
	}

	distances := make([]float64, len(sentences)-1)
	for i := 0; i < len(distances); i++ {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := percentile(distances, p.BreakpointPercentile)

	var chunks []string
	var cur []string
	for i, s := range sentences {
		cur = append(cur, s)
		if i < len(distances) && distances[i] > threshold {
			chunks = append(chunks, joinSentences(cur))
			cur = nil
		}
	}
	if len(cur) > 0 {
		chunks = append(chunks, joinSentences(cur))
	}
	return chunks, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// percentile 取排序后 pct 百分位的值，pct 取 [0,100]。
func percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	idx := int(math.Ceil(pct/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
