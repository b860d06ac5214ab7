package chunker

import "strings"

// splitTokenStrategy 把文本按空白切词，
// 以 ChunkSize 个词为窗口、ChunkOverlap 个词为重叠滑动。
func splitTokenStrategy(text string, p Params) ([]string, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := p.ChunkSize - p.ChunkOverlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + p.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.TrimSpace(strings.Join(tokens[start:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(tokens) {
			break
		}
	}
	return chunks, nil
}
