package extractor

import (
	"encoding/xml"
	"strings"
)

// docxExtractor 解析 word/document.xml，按段落输出文本。
type docxExtractor struct{}

// docx 正文的最小化结构，只取段落、换行和文本节点。
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts  []string   `xml:"t"`
	Breaks []struct{} `xml:"br"`
	Tabs   []struct{} `xml:"tab"`
}

func (e *docxExtractor) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	docXML, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return "", err
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for range r.Tabs {
				line.WriteByte('\t')
			}
			for _, t := range r.Texts {
				line.WriteString(t)
			}
			for range r.Breaks {
				line.WriteByte('\n')
			}
		}
		sb.WriteString(line.String())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
