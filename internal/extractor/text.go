package extractor

import (
	"bytes"
	"unicode/utf8"
)

// textExtractor 处理 .txt 和 .md 等纯文本格式。
type textExtractor struct{}

func (e *textExtractor) Extract(data []byte) (string, error) {
	// 去掉 UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		// 非 UTF-8 内容按字节替换为合法编码，保留能读的部分
		data = bytes.ToValidUTF8(data, []byte("�"))
	}
	return string(data), nil
}
