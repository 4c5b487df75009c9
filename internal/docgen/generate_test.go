package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string)
	for i, f := range zr.File {
		if i == 0 {
			assert.Equal(t, "[Content_Types].xml", f.Name)
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestGeneratePDF(t *testing.T) {
	var pages []Page
	require.NoError(t, json.Unmarshal([]byte(`[
		{"content": [{"type": "text", "text": "Quarterly (draft)"}, {"type": "table", "head": [["Name", "Qty"]], "body": [["bolts", 12]]}]},
		{"content": [{"type": "text", "text": "Second page"}]}
	]`), &pages))

	blob, err := Generate(Document{Format: FormatPDF, Filename: "report", Pages: pages})
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", blob.Filename)
	assert.Equal(t, "application/pdf", blob.MediaType)
	pdf := string(blob.Data)
	assert.True(t, strings.HasPrefix(pdf, "%PDF-1."))
	assert.True(t, strings.HasSuffix(pdf, "%%EOF\n"), "tail %q", pdf[len(pdf)-16:])
	assert.Contains(t, pdf, "/Count 2")

	// uncompressed content streams show the laid out text
	raw, err := renderPDF(pages, false)
	require.NoError(t, err)
	for _, want := range []string{`(Quarterly \(draft\)) Tj`, "(Name) Tj", "(Qty) Tj", "(bolts) Tj", "(12) Tj", "(Second page) Tj"} {
		assert.Contains(t, string(raw), want)
	}
}

func TestGeneratePDFOverflowsPages(t *testing.T) {
	text := strings.Repeat("line\n", 200)
	blob, err := Generate(Document{Format: FormatPDF, Filename: "long.pdf", Pages: []Page{{Content: []Item{{Type: "text", Text: text}}}}})
	require.NoError(t, err)
	assert.Contains(t, string(blob.Data), "/Count 4")
	assert.Equal(t, "long.pdf", blob.Filename)
}

func TestGenerateDOCX(t *testing.T) {
	blob, err := Generate(Document{Format: FormatDOCX, Filename: "notes.docx", Sections: []Section{{
		Children: []Item{
			{Type: "heading", Text: "Plan & scope"},
			{Type: "table", Rows: [][]any{{"a", "b"}}},
		},
	}}})
	require.NoError(t, err)

	files := unzip(t, blob.Data)
	doc := files["word/document.xml"]
	assert.Contains(t, doc, "Plan &amp; scope")
	assert.Contains(t, doc, "<w:b/>")
	assert.Contains(t, doc, "<w:tbl>")
	assert.Contains(t, files["_rels/.rels"], `Target="word/document.xml"`)
}

func TestGenerateXLSX(t *testing.T) {
	blob, err := Generate(Document{Format: FormatXLSX, Filename: "data", Sheets: []Sheet{
		{Name: "Q1/Q2", Data: [][]any{{"item", "qty"}, {"x", 3.5, true}, {map[string]any{"text": "bold"}}}, Merges: []string{"A1:B1"}},
		{Name: "Q1/Q2"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "data.xlsx", blob.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(blob.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Q1_Q2", "Q1_Q2 (2)"}, f.GetSheetList())
	cells := map[string]string{"A1": "item", "B2": "3.5", "C2": "TRUE", "A3": "bold"}
	for cell, want := range cells {
		got, err := f.GetCellValue("Q1_Q2", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, "cell %s", cell)
	}
	merges, err := f.GetMergeCells("Q1_Q2")
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A1", merges[0].GetStartAxis())
	assert.Equal(t, "B1", merges[0].GetEndAxis())
}

func TestGenerateXLSXBadMerge(t *testing.T) {
	_, err := Generate(Document{Format: FormatXLSX, Filename: "x", Sheets: []Sheet{{Name: "S", Merges: []string{"A1"}}}})
	assert.ErrorContains(t, err, "invalid merge range")
}

func TestSheetName(t *testing.T) {
	seen := make(map[string]bool)
	long := strings.Repeat("n", 40)
	assert.Equal(t, strings.Repeat("n", 31), sheetName(long, 1, seen))
	second := sheetName(long, 2, seen)
	assert.Equal(t, strings.Repeat("n", 27)+" (2)", second)
	assert.Equal(t, "Sheet3", sheetName("  ", 3, seen))
	assert.Equal(t, "a_b", sheetName("'a:b'", 4, seen))
}

func TestGeneratePPTX(t *testing.T) {
	blob, err := Generate(Document{Format: FormatPPTX, Filename: "deck.PPTX", Slides: []Slide{
		{Elements: []Item{{Type: "text", Text: "Hello"}}, Notes: "say hi"},
		{Elements: []Item{{Type: "text", Text: "Bye"}}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "deck.PPTX", blob.Filename)

	files := unzip(t, blob.Data)
	assert.Contains(t, files["ppt/slides/slide1.xml"], "<a:t>Hello</a:t>")
	assert.Contains(t, files["ppt/notesSlides/notesSlide1.xml"], "say hi")
	assert.NotContains(t, files, "ppt/notesSlides/notesSlide2.xml")
	assert.Contains(t, files["ppt/presentation.xml"], `r:id="rId2"`)
}

func TestGenerateErrors(t *testing.T) {
	_, err := Generate(Document{Format: "odt", Filename: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Generate(Document{Format: FormatXLSX, Filename: "x"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "a.pdf", Filename("a", FormatPDF))
	assert.Equal(t, "a.pdf", Filename("../../a.pdf", FormatPDF))
	assert.Equal(t, "c.docx", Filename(`dir\c`, FormatDOCX))
	assert.Equal(t, "document.xlsx", Filename("  ", FormatXLSX))
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "12", CellText(float64(12)))
	assert.Equal(t, "1.5", CellText(1.5))
	assert.Equal(t, "bold", CellText(map[string]any{"text": "bold", "options": map[string]any{}}))
	assert.Equal(t, "", CellText(nil))
	assert.Equal(t, "true", CellText(true))
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	loc, err := DirSink{Dir: dir}.Save(Blob{Filename: "r.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "r.pdf"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}
