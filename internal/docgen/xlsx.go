package docgen

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the worksheet name limit of Excel.
const maxSheetName = 31

func renderXLSX(sheets []Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool)
	for i, s := range sheets {
		name := sheetName(s.Name, i+1, seen)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if err := fillSheet(f, name, s); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func fillSheet(f *excelize.File, name string, s Sheet) error {
	for r, row := range s.Data {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			switch v.(type) {
			case float64, bool, string:
			default:
				v = CellText(v)
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return fmt.Errorf("sheet %q cell %s: %w", name, cell, err)
			}
		}
	}
	for _, m := range s.Merges {
		from, to, ok := strings.Cut(m, ":")
		if !ok {
			return fmt.Errorf("sheet %q: invalid merge range %q", name, m)
		}
		if err := f.MergeCell(name, from, to); err != nil {
			return fmt.Errorf("sheet %q merge %s: %w", name, m, err)
		}
	}
	return nil
}

// sheetName returns a unique, valid worksheet name.
func sheetName(name string, n int, seen map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.Trim(strings.TrimSpace(name), "'"))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", n)
	}
	base := truncateRunes(name, maxSheetName)
	name = base
	for i := 2; seen[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	seen[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
