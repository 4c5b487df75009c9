// Package diff computes line diffs of file contents for operation results,
// as hunks for programmatic use and as unified text for display.
package diff

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line represents a single line in the diff
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk represents a group of changes
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents changes to a single file
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// Stats counts added and removed lines.
func (d *FileDiff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Summary renders the stats as "+3 -1".
func (d *FileDiff) Summary() string {
	a, r := d.Stats()
	return fmt.Sprintf("+%d -%d", a, r)
}

// Engine provides diff computation with caching
type Engine struct {
	context int
	cache   sync.Map // cacheKey -> []Hunk
}

// cacheKey identifies an input pair
type cacheKey struct {
	oldHash uint64
	newHash uint64
}

// DefaultContext is the number of unchanged lines around each change.
const DefaultContext = 3

// NewEngine creates a diff engine with the default context.
func NewEngine() *Engine {
	return &Engine{context: DefaultContext}
}

// ComputeDiff creates a FileDiff from old and new content strings. Results
// for identical input pairs are cached.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{
		OldPath:  oldPath,
		NewPath:  newPath,
		IsNew:    oldContent == "",
		IsDelete: newContent == "",
	}
	if oldContent == newContent {
		return fd
	}

	key := cacheKey{hash(oldContent), hash(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		fd.Hunks = cached.([]Hunk)
		return fd
	}

	fd.Hunks = e.hunks(splitLines(oldContent), splitLines(newContent))
	e.cache.Store(key, fd.Hunks)
	return fd
}

func (e *Engine) hunks(a, b []string) []Hunk {
	m := difflib.NewMatcher(a, b)
	var out []Hunk
	for _, group := range m.GetGroupedOpCodes(e.context) {
		if onlyEqual(group) {
			continue
		}
		first, last := group[0], group[len(group)-1]
		h := Hunk{
			OldStart: start(first.I1, last.I2),
			OldCount: last.I2 - first.I1,
			NewStart: start(first.J1, last.J2),
			NewCount: last.J2 - first.J1,
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for i := op.I1; i < op.I2; i++ {
					h.Lines = append(h.Lines, Line{LineNum: i + 1, Content: a[i], Type: LineContext})
				}
			case 'd', 'r', 'i':
				for i := op.I1; i < op.I2; i++ {
					h.Lines = append(h.Lines, Line{LineNum: i + 1, Content: a[i], Type: LineRemoved})
				}
				for j := op.J1; j < op.J2; j++ {
					h.Lines = append(h.Lines, Line{LineNum: j + 1, Content: b[j], Type: LineAdded})
				}
			}
		}
		out = append(out, h)
	}
	return out
}

// start follows the unified convention: an empty range starts at the line
// before it.
func start(lo, hi int) int {
	if hi == lo {
		return lo
	}
	return lo + 1
}

func onlyEqual(ops []difflib.OpCode) bool {
	for _, op := range ops {
		if op.Tag != 'e' {
			return false
		}
	}
	return true
}

// Unified renders a classic unified patch from oldPath to newPath, or ""
// when the contents are equal.
func (e *Engine) Unified(oldPath, newPath, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	from, to := "a/"+oldPath, "b/"+newPath
	if oldContent == "" {
		from = "/dev/null"
	}
	if newContent == "" {
		to = "/dev/null"
	}
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        keepNewlines(oldContent),
		B:        keepNewlines(newContent),
		FromFile: from,
		ToFile:   to,
		Context:  e.context,
	})
	if err != nil {
		return fmt.Sprintf("--- %s\n+++ %s\n(diff unavailable: %v)\n", from, to, err)
	}
	return s
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// keepNewlines splits s after each newline and terminates the last line so
// the patch stays well formed.
func keepNewlines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}

// hash computes FNV-1a for cache keys.
func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
