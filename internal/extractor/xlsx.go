package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// xlsxExtractor 解析工作簿，每个工作表输出一个带名称的文本块，
// 行内单元格用制表符连接。
type xlsxExtractor struct{}

type xlsxWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			ID   string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xlsxRels struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSharedStrings struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type xlsxSheet struct {
	Rows []struct {
		Cells []xlsxCell `xml:"c"`
	} `xml:"sheetData>row"`
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		T string `xml:"t"`
	} `xml:"is"`
}

func (e *xlsxExtractor) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	wbXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return "", err
	}
	var wb xlsxWorkbook
	if err := xml.Unmarshal(wbXML, &wb); err != nil {
		return "", err
	}

	// 共享字符串表可能不存在（全是数字的表格）
	shared := loadSharedStrings(zr)
	relTargets := loadRelTargets(zr)

	var sb strings.Builder
	for i, sheet := range wb.Sheets.Sheet {
		target, ok := relTargets[sheet.ID]
		if !ok {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		target = strings.TrimPrefix(target, "/xl/")
		sheetXML, err := readZipFile(zr, "xl/"+target)
		if err != nil {
			continue
		}
		var ws xlsxSheet
		if err := xml.Unmarshal(sheetXML, &ws); err != nil {
			continue
		}

		sb.WriteString(fmt.Sprintf("[Sheet: %s]\n", sheet.Name))
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				// 真正的空单元格不会写入 sheet XML，按引用列号补空串保持列对齐
				if idx := columnIndex(c.Ref); idx > len(cells) {
					for len(cells) < idx {
						cells = append(cells, "")
					}
				}
				cells = append(cells, cellValue(c, shared))
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func loadSharedStrings(zr *zip.Reader) []string {
	ssXML, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil
	}
	var ss xlsxSharedStrings
	if err := xml.Unmarshal(ssXML, &ss); err != nil {
		return nil
	}
	out := make([]string, 0, len(ss.Items))
	for _, si := range ss.Items {
		if si.T != "" {
			out = append(out, si.T)
			continue
		}
		var b strings.Builder
		for _, r := range si.Runs {
			b.WriteString(r.T)
		}
		out = append(out, b.String())
	}
	return out
}

func loadRelTargets(zr *zip.Reader) map[string]string {
	relXML, err := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return map[string]string{}
	}
	var rels xlsxRels
	if err := xml.Unmarshal(relXML, &rels); err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		out[rel.ID] = rel.Target
	}
	return out
}

// columnIndex 把单元格引用（如 "C1"）的字母部分换算成从 0 开始的列号，
// 没有引用属性时返回 -1。
func columnIndex(ref string) int {
	n := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1
}

func cellValue(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		var idx int
		if _, err := fmt.Sscanf(c.Value, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "inlineStr":
		return c.Inline.T
	default:
		return c.Value
	}
}
