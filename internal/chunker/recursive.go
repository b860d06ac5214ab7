package chunker

import "strings"

// 层级分隔符：空行、换行、句末标点、逗号、空格，最后硬切
var recursiveSeparators = []string{"\n\n", "\n", "。", ". ", ", ", " "}

// splitRecursiveStrategy 按分隔符层级递归切分，再把碎片贪心合并到目标块大小。
func splitRecursiveStrategy(text string, p Params) ([]string, error) {
	pieces := recursiveSplit(text, p.ChunkSize, recursiveSeparators)
	return mergePieces(pieces, p), nil
}

// recursiveSplit 逐级尝试分隔符，超长的片段换下一级继续切，
// 用尽所有分隔符后按固定字符数硬切。
func recursiveSplit(text string, size int, separators []string) []string {
	if len([]rune(text)) <= size {
		return []string{text}
	}
	if len(separators) == 0 {
		return hardSplit(text, size)
	}

	sep := separators[0]
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return recursiveSplit(text, size, separators[1:])
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len([]rune(part)) <= size {
			out = append(out, part)
		} else {
			out = append(out, recursiveSplit(part, size, separators[1:])...)
		}
	}
	return out
}

func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// mergePieces 把相邻碎片贪心拼接，不超过目标块大小，
// 块间用上一块的尾部字符做重叠。
func mergePieces(pieces []string, p Params) []string {
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if chunk := strings.TrimSpace(cur.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
	}
	for _, piece := range pieces {
		if cur.Len() > 0 && len([]rune(cur.String()))+len([]rune(piece)) > p.ChunkSize {
			prev := cur.String()
			flush()
			cur.WriteString(tailRunes(prev, p.ChunkOverlap))
		}
		cur.WriteString(piece)
	}
	flush()
	return chunks
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
