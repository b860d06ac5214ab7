package extractor

import (
	"path/filepath"
	"strings"

	"weaver-rag-go/pkg/log"
)

// Extractor 从某一类文件格式中提取纯文本。
type Extractor interface {
	Extract(data []byte) (string, error)
}

var registry = map[string]Extractor{
	".txt":  &textExtractor{},
	".md":   &textExtractor{},
	".pdf":  &pdfExtractor{},
	".docx": &docxExtractor{},
	".xlsx": &xlsxExtractor{},
	".pptx": &pptxExtractor{},
}

// SupportedExtensions 返回所有已注册的扩展名。
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}

// IsSupported 判断文件名对应的格式是否可提取。
func IsSupported(fileName string) bool {
	_, ok := registry[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// ExtractText 按扩展名分发到对应的提取器，返回规整后的纯文本。
// 对完全提取不出内容的文件返回空字符串而不是错误，由上层决定如何处理。
func ExtractText(fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	ex, ok := registry[ext]
	if !ok {
		return "", &UnsupportedFormatError{Ext: ext}
	}

	text, err := ex.Extract(data)
	if err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}

	text = normalize(text)
	if text == "" {
		log.Warnf("文件 %s 提取结果为空", fileName)
	}
	return text, nil
}

// normalize 统一换行符并折叠三个以上的连续空行。
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
