package docgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	margin      = 50 // points
	fontSize    = 11
	headingSize = 15
	leading     = 14
)

// renderPDF lays each page of the request out on a new A4 page with the
// core Helvetica font. Overflow continues on further pages. Text outside
// cp1252 is transliterated by the font translator.
func renderPDF(pages []Page, compress bool) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("gen1", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, _ := pdf.GetPageSize()
	usable := width - 2*margin

	for _, p := range pages {
		pdf.AddPage()
		for _, it := range p.Content {
			switch it.Type {
			case "table":
				pdfTable(pdf, tr, it, usable)
			case "heading":
				pdf.SetFont("Helvetica", "B", headingSize)
				pdfLines(pdf, tr, it.Lines(), headingSize+4)
			default:
				pdf.SetFont("Helvetica", "", fontSize)
				pdfLines(pdf, tr, it.Lines(), leading)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfLines(pdf *fpdf.Fpdf, tr func(string) string, lines []string, height float64) {
	for _, l := range lines {
		if l == "" {
			pdf.Ln(height)
			continue
		}
		pdf.MultiCell(0, height, tr(l), "", "L", false)
	}
}

// pdfTable draws a bordered grid with equal column widths. Header rows are
// bold.
func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, it Item, usable float64) {
	rows := it.Table()
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return
	}
	w := usable / float64(cols)
	for i, row := range rows {
		style := ""
		if i < len(it.Head) {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, fontSize)
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			pdf.CellFormat(w, leading+4, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(leading / 2)
}
