package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

type part struct {
	name string
	body string
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsRels      = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsOfficeDoc = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	nsDocRels   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// pack zips parts in order. [Content_Types].xml must come first.
func pack(parts []part) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(xmlHeader + p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentTypes(overrides map[string]string, order []string) string {
	var b strings.Builder
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	for _, name := range order {
		fmt.Fprintf(&b, `<Override PartName="/%s" ContentType="%s"/>`, name, overrides[name])
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func rootRels(target string) string {
	return fmt.Sprintf(`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="%s"/></Relationships>`, nsRels, nsOfficeDoc, target)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// DOCX

func renderDOCX(sections []Section) ([]byte, error) {
	var body strings.Builder
	for i, s := range sections {
		for _, it := range s.Children {
			writeDOCXItem(&body, it)
		}
		if i < len(sections)-1 {
			body.WriteString(`<w:p><w:pPr><w:sectPr/></w:pPr></w:p>`)
		}
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `<w:sectPr/></w:body></w:document>`

	const main = "word/document.xml"
	return pack([]part{
		{"[Content_Types].xml", contentTypes(map[string]string{
			main: "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml",
		}, []string{main})},
		{"_rels/.rels", rootRels(main)},
		{main, doc},
	})
}

func writeDOCXItem(b *strings.Builder, it Item) {
	switch it.Type {
	case "table":
		rows := it.Table()
		if len(rows) == 0 {
			return
		}
		b.WriteString(`<w:tbl>`)
		for _, row := range rows {
			b.WriteString(`<w:tr>`)
			for _, cell := range row {
				fmt.Fprintf(b, `<w:tc><w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, esc(cell))
			}
			b.WriteString(`</w:tr>`)
		}
		b.WriteString(`</w:tbl>`)
	default:
		bold := it.Type == "heading"
		for _, line := range it.Lines() {
			b.WriteString(`<w:p><w:r>`)
			if bold {
				b.WriteString(`<w:rPr><w:b/></w:rPr>`)
			}
			fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(line))
		}
	}
}

// PPTX

func renderPPTX(slides []Slide) ([]byte, error) {
	const pres = "ppt/presentation.xml"
	overrides := map[string]string{
		pres: "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml",
	}
	order := []string{pres}

	var ids, rels strings.Builder
	var slideParts []part
	for i, s := range slides {
		n := i + 1
		file := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		overrides[file] = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
		order = append(order, file)

		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%s/slide" Target="slides/slide%d.xml"/>`, n, nsDocRels, n)
		slideParts = append(slideParts, part{file, slideXML(s)})

		if s.Notes != "" {
			notes := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)
			overrides[notes] = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
			order = append(order, notes)
			slideParts = append(slideParts,
				part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), fmt.Sprintf(
					`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s/notesSlide" Target="../notesSlides/notesSlide%d.xml"/></Relationships>`,
					nsRels, nsDocRels, n)},
				part{notes, notesXML(s.Notes)})
		}
	}

	parts := []part{
		{"[Content_Types].xml", contentTypes(overrides, order)},
		{"_rels/.rels", rootRels(pres)},
		{pres, fmt.Sprintf(`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="%s"><p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="9144000" cy="5143500"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`,
			nsDocRels, ids.String())},
		{"ppt/_rels/presentation.xml.rels", fmt.Sprintf(`<Relationships xmlns="%s">%s</Relationships>`, nsRels, rels.String())},
	}
	return pack(append(parts, slideParts...))
}

func slideXML(s Slide) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	id := 2
	for _, it := range s.Elements {
		lines := it.Lines()
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`, id, esc(it.Type), id)
		for _, l := range lines {
			fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, esc(l))
		}
		b.WriteString(`</p:txBody></p:sp>`)
		id++
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func notesXML(notes string) string {
	var b strings.Builder
	b.WriteString(`<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`)
	for _, l := range strings.Split(notes, "\n") {
		fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, esc(l))
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:notes>`)
	return b.String()
}
