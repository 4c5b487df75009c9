package docgen

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"gen1/internal/logging"
)

var (
	// ErrUnsupportedFormat is returned for a format with no generator.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned when the document has nothing to render.
	ErrEmptyDocument = errors.New("document has no content")
)

// Generate renders doc into a blob named after doc.Filename, adding the
// format extension when it is missing.
func Generate(doc Document) (Blob, error) {
	timer := logging.StartTimer(logging.CategoryDocgen, "Generate")
	defer timer.Stop()

	var (
		data []byte
		err  error
	)
	switch doc.Format {
	case FormatPDF:
		if len(doc.Pages) == 0 {
			return Blob{}, fmt.Errorf("%w: pdf needs at least one page", ErrEmptyDocument)
		}
		data, err = renderPDF(doc.Pages, true)
	case FormatDOCX:
		if len(doc.Sections) == 0 {
			return Blob{}, fmt.Errorf("%w: docx needs at least one section", ErrEmptyDocument)
		}
		data, err = renderDOCX(doc.Sections)
	case FormatXLSX:
		if len(doc.Sheets) == 0 {
			return Blob{}, fmt.Errorf("%w: xlsx needs at least one sheet", ErrEmptyDocument)
		}
		data, err = renderXLSX(doc.Sheets)
	case FormatPPTX:
		if len(doc.Slides) == 0 {
			return Blob{}, fmt.Errorf("%w: pptx needs at least one slide", ErrEmptyDocument)
		}
		data, err = renderPPTX(doc.Slides)
	default:
		return Blob{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.Format)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("generate %s: %w", doc.Format.Label(), err)
	}

	name := Filename(doc.Filename, doc.Format)
	logging.DocgenDebug("generated %s (%d bytes)", name, len(data))
	return Blob{Filename: name, MediaType: doc.Format.MediaType(), Data: data}, nil
}

// Filename returns the base name of name with the extension of f.
func Filename(name string, f Format) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	ext := "." + string(f)
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}

// Generator is the default document generator.
type Generator struct{}

// Generate implements the executor's document generator.
func (Generator) Generate(doc Document) (Blob, error) {
	return Generate(doc)
}
