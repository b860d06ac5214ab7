package extractor

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// pptxExtractor 按幻灯片序号遍历 ppt/slides/slideN.xml，
// 每页输出一个带编号的文本块。
type pptxExtractor struct{}

func (e *pptxExtractor) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	var slideNames []string
	for _, f := range zr.File {
		name := f.Name
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			slideNames = append(slideNames, name)
		}
	}
	// slide10.xml 字典序会排在 slide2.xml 前面，按编号排
	sort.Slice(slideNames, func(i, j int) bool {
		return slideNumber(slideNames[i]) < slideNumber(slideNames[j])
	})

	var sb strings.Builder
	for i, name := range slideNames {
		slideXML, err := readZipFile(zr, name)
		if err != nil {
			continue
		}
		texts := collectSlideTexts(slideXML)
		sb.WriteString(fmt.Sprintf("[Slide %d]\n", i+1))
		for _, t := range texts {
			sb.WriteString(t)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	var n int
	fmt.Sscanf(base, "%d", &n)
	return n
}

// collectSlideTexts 用流式解码器收集所有 a:t 节点的文本，按出现顺序返回。
func collectSlideTexts(data []byte) []string {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var texts []string
	var inT bool
	var cur strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inT = true
				cur.Reset()
			}
		case xml.CharData:
			if inT {
				cur.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" && inT {
				inT = false
				if s := cur.String(); s != "" {
					texts = append(texts, s)
				}
			}
		}
	}
	return texts
}
