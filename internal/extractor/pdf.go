package extractor

import (
	"bytes"
	"compress/zlib"
	"io"
	"strings"

	"weaver-rag-go/pkg/log"
)

// pdfExtractor 是一个轻量的 PDF 内容流扫描器：
// 定位 stream/endstream 块，对 FlateDecode 流解压，
// 在 BT/ET 文本块内解析 Tj 和 TJ 操作符。
// 解析失败的页直接跳过，不让单页损坏拖垮整个文档。
type pdfExtractor struct{}

func (e *pdfExtractor) Extract(data []byte) (string, error) {
	var sb strings.Builder
	rest := data
	for {
		streamData, dict, next, ok := nextStream(rest)
		if !ok {
			break
		}
		rest = next

		content := streamData
		if bytes.Contains(dict, []byte("FlateDecode")) {
			decoded, err := inflate(streamData)
			if err != nil {
				log.Debugf("跳过无法解压的 PDF 内容流: %v", err)
				continue
			}
			content = decoded
		}

		text := extractTextOperators(content)
		if text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// nextStream 找到下一个 stream/endstream 块，返回流内容、
// 前置的对象字典以及剩余字节。
func nextStream(data []byte) (stream, dict, rest []byte, ok bool) {
	start := bytes.Index(data, []byte("stream"))
	if start < 0 {
		return nil, nil, nil, false
	}

	// 字典在 stream 关键字之前，用于判断过滤器
	dictStart := bytes.LastIndex(data[:start], []byte("<<"))
	if dictStart >= 0 {
		dict = data[dictStart:start]
	}

	body := data[start+len("stream"):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	end := bytes.Index(body, []byte("endstream"))
	if end < 0 {
		return nil, nil, nil, false
	}
	return body[:end], dict, body[end+len("endstream"):], true
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil && len(out) == 0 {
		return nil, err
	}
	// 尾部截断的流保留已解出的部分
	return out, nil
}

// extractTextOperators 在 BT/ET 块内收集 Tj 和 TJ 操作符的字符串参数。
func extractTextOperators(content []byte) string {
	var sb strings.Builder
	rest := content
	for {
		bt := bytes.Index(rest, []byte("BT"))
		if bt < 0 {
			break
		}
		et := bytes.Index(rest[bt:], []byte("ET"))
		if et < 0 {
			break
		}
		block := rest[bt : bt+et]
		rest = rest[bt+et+2:]

		line := parseTextBlock(block)
		if line != "" {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

// parseTextBlock 逐字节解析一个文本块，取出括号字符串并在遇到
// Tj/TJ/'/\" 操作符时落盘。TJ 数组内的字距调整数字直接忽略。
func parseTextBlock(block []byte) string {
	var sb strings.Builder
	var pending strings.Builder
	i := 0
	for i < len(block) {
		c := block[i]
		switch {
		case c == '(':
			s, next := parseString(block, i)
			pending.WriteString(s)
			i = next
		case c == 'T' && i+1 < len(block) && (block[i+1] == 'j' || block[i+1] == 'J'):
			sb.WriteString(pending.String())
			pending.Reset()
			i += 2
		case c == '\'' || c == '"':
			sb.WriteByte('\n')
			sb.WriteString(pending.String())
			pending.Reset()
			i++
		default:
			i++
		}
	}
	return sb.String()
}

// parseString 解析从 i 处开始的括号字符串，处理转义和嵌套括号，
// 返回解出的内容和下一个待读位置。
func parseString(block []byte, i int) (string, int) {
	var sb strings.Builder
	depth := 0
	for ; i < len(block); i++ {
		c := block[i]
		switch c {
		case '\\':
			if i+1 < len(block) {
				i++
				switch block[i] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r', 'b', 'f':
					// 忽略
				default:
					sb.WriteByte(block[i])
				}
			}
		case '(':
			depth++
			if depth > 1 {
				sb.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			if depth > 0 {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String(), i
}
