package blocks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkers(t *testing.T) {
	tests := []struct {
		file       string
		start, end string
	}{
		{"auth.js", "//----start of auth----", "//----end of auth----"},
		{"page.html", "<!------start of auth------>", "<!------end of auth------>"},
		{"site.css", "/*----start of auth----*/", "/*----end of auth----*/"},
		{"tool.py", "#----start of auth----", "#----end of auth----"},
	}
	for _, tt := range tests {
		start, end := Markers("auth", tt.file)
		assert.Equal(t, tt.start, start, tt.file)
		assert.Equal(t, tt.end, end, tt.file)
	}
}

func TestInsertThenUpdate(t *testing.T) {
	content := "a\nb\nc"

	marked, err := InsertMarkers(content, "B", 1, 1, "x.js")
	require.NoError(t, err)
	assert.Equal(t, "a\n//----start of B----\nb\n//----end of B----\nc", marked)

	updated, err := UpdateBlock(marked, "B", "  new body\n\n", "x.js")
	require.NoError(t, err)
	assert.Equal(t, "a\n//----start of B----\nnew body\n//----end of B----\nc", updated)

	block, err := FindBlock(updated, "B", "x.js")
	require.NoError(t, err)
	assert.Equal(t, "\nnew body\n", block.Body)
	assert.Equal(t, 1, block.StartLine)
	assert.Equal(t, 3, block.EndLine)
}

func TestUpdateBlockPreservesOutsideText(t *testing.T) {
	prefix := "package main\n\nimport \"fmt\"\n"
	suffix := "\nfunc other() {}\n//----end of main_logic----\n"
	content := prefix + "//----start of main_logic----\nold()\n//----end of main_logic----" + suffix

	for _, body := range []string{"", "x", "fmt.Println(1)\nfmt.Println(2)", "\n\n  spaced  \n"} {
		out, err := UpdateBlock(content, "main_logic", body, "main.go")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, prefix+"//----start of main_logic----"))
		assert.True(t, strings.HasSuffix(out, "//----end of main_logic----"+suffix))
		assert.Contains(t, out, "\n"+strings.TrimSpace(body)+"\n")
	}
}

func TestUpdateBlockMissingMarkers(t *testing.T) {
	_, err := UpdateBlock("no markers here", "x", "body", "a.go")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
	assert.Contains(t, err.Error(), "start marker")

	_, err = UpdateBlock("//----start of x----\nbody", "x", "body", "a.go")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
	assert.Contains(t, err.Error(), "end marker")

	// an end marker before the start does not count
	_, err = UpdateBlock("//----end of x----\n//----start of x----\n", "x", "body", "a.go")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestInsertMarkersErrors(t *testing.T) {
	content := "one\ntwo\nthree"

	tests := []struct {
		name       string
		start, end int
		content    string
		want       error
	}{
		{"negative start", -1, 1, content, ErrLineRange},
		{"negative end", 0, -1, content, ErrLineRange},
		{"start past end+1", 3, 1, content, ErrLineRange},
		{"out of bounds", 0, 4, content, ErrLineRange},
		{"already marked", 0, 0, "//----start of blk----\n//----end of blk----", ErrMarkersExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InsertMarkers(tt.content, "blk", tt.start, tt.end, "f.ts")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInsertMarkersEdges(t *testing.T) {
	// empty block: start == end+1
	out, err := InsertMarkers("a\nb", "e", 1, 0, "f.py")
	require.NoError(t, err)
	assert.Equal(t, "a\n#----start of e----\n#----end of e----\nb", out)

	// end on the last line appends the end marker
	out, err = InsertMarkers("a\nb", "t", 0, 1, "f.py")
	require.NoError(t, err)
	assert.Equal(t, "#----start of t----\na\nb\n#----end of t----", out)

	// end == line count is allowed
	out, err = InsertMarkers("a", "n", 1, 1, "f.py")
	require.NoError(t, err)
	assert.Equal(t, "a\n#----start of n----\n#----end of n----", out)
}
