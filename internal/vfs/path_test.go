package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"/a//b///c.txt", "a/b/c.txt"},
		{" src/main.go ", "src/main.go"},
		{"dir/", "dir/"},
		{"//", ""},
		{"café.md", "café.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "NormalizePath(%q)", tt.in)
	}
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "a/b/", Parent("a/b/c.txt"))
	assert.Equal(t, "a/", Parent("a/b/"))
	assert.Equal(t, "", Parent("top.txt"))
	assert.Equal(t, []string{"a/", "a/b/"}, Ancestors("a/b/c"))
	assert.Equal(t, []string{"a/"}, Ancestors("a/b/"))
	assert.Nil(t, Ancestors("top"))
	assert.Equal(t, "c.txt", Base("a/b/c.txt"))
	assert.Equal(t, "b", Base("a/b/"))
	assert.Equal(t, "md", Ext("README.MD"))
	assert.Equal(t, "", Ext("Makefile"))
	assert.Equal(t, "x/", DirPath("/x"))
}

func TestCommentStyleFor(t *testing.T) {
	tests := []struct {
		file  string
		start string
		end   string
	}{
		{"app.js", "//", ""},
		{"main.go", "//", ""},
		{"index.HTML", "<!--", "-->"},
		{"notes.md", "<!--", "-->"},
		{"site.scss", "/*", "*/"},
		{"tool.py", "#", ""},
		{"Rakefile.rb", "#", ""},
		{"unknown.zzz", "//", ""},
		{"Makefile", "//", ""},
	}
	for _, tt := range tests {
		got := CommentStyleFor(tt.file)
		assert.Equal(t, tt.start, got.Start, tt.file)
		assert.Equal(t, tt.end, got.End, tt.file)
	}
}
