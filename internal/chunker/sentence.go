package chunker

import "strings"

// splitSentenceStrategy 按句子边界聚合分块，块间保留尾部句子作为重叠。
func splitSentenceStrategy(text string, p Params) ([]string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []string
	var cur []string
	curLen := 0
	for _, s := range sentences {
		sl := len([]rune(s))
		if curLen > 0 && curLen+sl > p.ChunkSize {
			chunks = append(chunks, joinSentences(cur))
			cur, curLen = overlapTail(cur, p.ChunkOverlap)
		}
		cur = append(cur, s)
		curLen += sl
	}
	if len(cur) > 0 {
		chunks = append(chunks, joinSentences(cur))
	}
	return chunks, nil
}

// overlapTail 从尾部取总长不超过 overlap 的句子，作为下一块的开头。
func overlapTail(sentences []string, overlap int) ([]string, int) {
	var tail []string
	kept := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		l := len([]rune(sentences[i]))
		if kept+l > overlap {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		kept += l
	}
	return tail, kept
}

func joinSentences(sentences []string) string {
	return strings.TrimSpace(strings.Join(sentences, " "))
}
