// Package docgen turns a declarative document description into a
// downloadable PDF, DOCX, XLSX or PPTX blob.
package docgen

import (
	"fmt"
	"strings"
)

// Format is a generated document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatPPTX Format = "pptx"
)

// MediaType returns the MIME type of f.
func (f Format) MediaType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/octet-stream"
}

// Label is the upper-case name used in user-facing messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// Item is one element of a page, section or slide: text, paragraph,
// table, image, shape, line or chart. Unknown fields live in Options.
type Item struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Head    [][]any        `json:"head,omitempty"`
	Body    [][]any        `json:"body,omitempty"`
	Rows    [][]any        `json:"rows,omitempty"`
	Data    any            `json:"data,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Page is one PDF page.
type Page struct {
	Content []Item `json:"content"`
}

// Section is one DOCX section.
type Section struct {
	Properties map[string]any `json:"properties,omitempty"`
	Children   []Item         `json:"children"`
}

// Sheet is one XLSX worksheet.
type Sheet struct {
	Name   string   `json:"name"`
	Data   [][]any  `json:"data"`
	Merges []string `json:"merges,omitempty"`
}

// Slide is one PPTX slide.
type Slide struct {
	Master   string `json:"master,omitempty"`
	Elements []Item `json:"elements"`
	Notes    string `json:"notes,omitempty"`
}

// Document is a complete generation request.
type Document struct {
	Format   Format
	Filename string
	Pages    []Page
	Sections []Section
	Sheets   []Sheet
	Slides   []Slide
}

// Blob is a generated document.
type Blob struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Lines flattens an item into the text lines it displays.
func (it Item) Lines() []string {
	var out []string
	if it.Text != "" {
		out = append(out, strings.Split(it.Text, "\n")...)
	}
	for _, rows := range [][][]any{it.Head, it.Body, it.Rows} {
		for _, row := range rows {
			out = append(out, joinRow(row))
		}
	}
	for _, row := range tableRows(it.Data) {
		out = append(out, joinRow(row))
	}
	return out
}

// Table returns every row of a table item, header first.
func (it Item) Table() [][]string {
	var out [][]string
	for _, rows := range [][][]any{it.Head, it.Body, it.Rows} {
		for _, row := range rows {
			out = append(out, cellStrings(row))
		}
	}
	for _, row := range tableRows(it.Data) {
		out = append(out, cellStrings(row))
	}
	return out
}

func tableRows(data any) [][]any {
	rows, ok := data.([]any)
	if !ok {
		return nil
	}
	var out [][]any
	for _, r := range rows {
		switch row := r.(type) {
		case []any:
			out = append(out, row)
		case map[string]any:
			// chart series: {name, labels, values}
			if name, ok := row["name"]; ok {
				out = append(out, []any{name})
			}
		}
	}
	return out
}

func joinRow(row []any) string {
	return strings.Join(cellStrings(row), " | ")
}

func cellStrings(row []any) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = CellText(c)
	}
	return out
}

// CellText renders a cell value. Object cells use their "text" field.
func CellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		if c == float64(int64(c)) {
			return fmt.Sprintf("%d", int64(c))
		}
		return fmt.Sprintf("%g", c)
	case map[string]any:
		if t, ok := c["text"]; ok {
			return CellText(t)
		}
		return ""
	default:
		return fmt.Sprint(c)
	}
}
