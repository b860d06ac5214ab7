package extractor

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText("note.txt", []byte("hello\r\nworld\r\n\r\n\r\nend"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n\nend", text)
}

func TestExtractTextStripsBOM(t *testing.T) {
	text, err := ExtractText("readme.md", []byte("\xEF\xBB\xBF# Title"))
	require.NoError(t, err)
	assert.Equal(t, "# Title", text)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText("image.png", []byte{0x89, 0x50})
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, ".png", ufe.Ext)
}

func TestExtractTextDocx(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": docXML})

	text, err := ExtractText("report.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestExtractTextDocxInvalidArchive(t *testing.T) {
	_, err := ExtractText("broken.docx", []byte("not a zip"))
	var exe *ExtractionError
	require.True(t, errors.As(err, &exe))
	assert.Equal(t, "broken.docx", exe.FileName)
}

func TestExtractTextXlsx(t *testing.T) {
	workbook := `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`
	rels := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
</Relationships>`
	sharedStrings := `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>A</t></si>
  <si><t>B</t></si>
</sst>`
	sheet := `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row><c t="s"><v>0</v></c><c t="s"><v>1</v></c></row>
    <row><c><v>1</v></c><c><v>2</v></c></row>
  </sheetData>
</worksheet>`
	data := buildZip(t, map[string]string{
		"xl/workbook.xml":            workbook,
		"xl/_rels/workbook.xml.rels": rels,
		"xl/sharedStrings.xml":       sharedStrings,
		"xl/worksheets/sheet1.xml":   sheet,
	})

	text, err := ExtractText("table.xlsx", data)
	require.NoError(t, err)
	assert.Contains(t, text, "[Sheet: Sheet1]")
	assert.Contains(t, text, "A\tB")
	assert.Contains(t, text, "1\t2")
}

func TestExtractTextXlsxBlankCellsKeepColumnAlignment(t *testing.T) {
	workbook := `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`
	// B1 没有 <c> 节点：Excel 不为真正的空单元格写节点
	sheet := `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="inlineStr"><is><t>A</t></is></c><c r="C1" t="inlineStr"><is><t>C</t></is></c></row>
  </sheetData>
</worksheet>`
	data := buildZip(t, map[string]string{
		"xl/workbook.xml":          workbook,
		"xl/worksheets/sheet1.xml": sheet,
	})

	text, err := ExtractText("sparse.xlsx", data)
	require.NoError(t, err)
	assert.Contains(t, text, "A\t\tC")
}

func TestExtractTextPptxOrdersSlidesNumerically(t *testing.T) {
	slide := func(s string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + s + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml":  slide("intro"),
		"ppt/slides/slide2.xml":  slide("middle"),
		"ppt/slides/slide10.xml": slide("outro"),
	})

	text, err := ExtractText("deck.pptx", data)
	require.NoError(t, err)
	assert.Contains(t, text, "[Slide 1]\nintro")
	assert.Contains(t, text, "[Slide 2]\nmiddle")
	assert.Contains(t, text, "[Slide 3]\noutro")
	assert.Less(t, bytes.Index([]byte(text), []byte("middle")), bytes.Index([]byte(text), []byte("outro")))
}

func TestExtractTextPdfUncompressedStream(t *testing.T) {
	pdf := "%PDF-1.4\n" +
		"1 0 obj\n<< /Length 44 >>\nstream\n" +
		"BT /F1 12 Tf (Hello) Tj (World) Tj ET\n" +
		"endstream\nendobj\n"

	text, err := ExtractText("doc.pdf", []byte(pdf))
	require.NoError(t, err)
	assert.Contains(t, text, "HelloWorld")
}

func TestExtractTextPdfSkipsBadStreams(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write([]byte("BT (good page) Tj ET"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	pdf := "%PDF-1.4\n" +
		"1 0 obj\n<< /Filter /FlateDecode >>\nstream\n" +
		"\x00\x01\x02corrupt" +
		"\nendstream\nendobj\n" +
		"2 0 obj\n<< /Filter /FlateDecode >>\nstream\n" +
		compressed.String() +
		"\nendstream\nendobj\n"

	text, err := ExtractText("mixed.pdf", []byte(pdf))
	require.NoError(t, err)
	assert.Contains(t, text, "good page")
	assert.NotContains(t, text, "corrupt")
}

func TestExtractTextPdfEscapes(t *testing.T) {
	pdf := "stream\nBT (paren \\(inside\\) ok) Tj ET\nendstream"
	text, err := ExtractText("esc.pdf", []byte(pdf))
	require.NoError(t, err)
	assert.Contains(t, text, "paren (inside) ok")
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.PDF"))
	assert.True(t, IsSupported("b.docx"))
	assert.False(t, IsSupported("c.exe"))
}
