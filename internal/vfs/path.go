package vfs

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath trims whitespace, collapses repeated slashes, strips the
// leading slash and puts the path in Unicode NFC so that visually identical
// names map to one key. A trailing slash is preserved.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = norm.NFC.String(p)

	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return strings.TrimPrefix(b.String(), "/")
}

// IsDir reports whether p names a directory (trailing slash).
func IsDir(p string) bool {
	return strings.HasSuffix(p, "/")
}

// DirPath returns the normalized directory form of p, with a trailing slash.
func DirPath(p string) string {
	p = NormalizePath(p)
	if p == "" || IsDir(p) {
		return p
	}
	return p + "/"
}

// Parent returns the parent directory of p with a trailing slash, or "" at
// the root.
func Parent(p string) string {
	p = strings.TrimSuffix(p, "/")
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i+1]
}

// Ancestors returns every directory prefix of p from the shallowest
// ("a/") to the immediate parent. A directory path's own prefix is not
// included.
func Ancestors(p string) []string {
	p = strings.TrimSuffix(p, "/")
	var out []string
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			out = append(out, p[:i+1])
		}
	}
	return out
}

// Base returns the last element of p.
func Base(p string) string {
	return path.Base(strings.TrimSuffix(p, "/"))
}

// Ext returns the lower-cased extension of filename without the dot.
func Ext(filename string) string {
	ext := path.Ext(Base(filename))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// CommentStyle is the comment syntax used for logic block markers.
type CommentStyle struct {
	Start string
	End   string // empty for line comments
}

var (
	slashComment = CommentStyle{Start: "//"}
	htmlComment  = CommentStyle{Start: "<!--", End: "-->"}
	blockComment = CommentStyle{Start: "/*", End: "*/"}
	hashComment  = CommentStyle{Start: "#"}
)

var commentStyles = map[string]CommentStyle{
	"js": slashComment, "jsx": slashComment, "ts": slashComment, "tsx": slashComment,
	"go": slashComment, "c": slashComment, "cpp": slashComment, "java": slashComment,
	"php": slashComment, "json": slashComment, "yaml": slashComment, "yml": slashComment,

	"html": htmlComment, "htm": htmlComment, "xml": htmlComment, "md": htmlComment,

	"css": blockComment, "less": blockComment, "scss": blockComment,

	"py": hashComment, "rb": hashComment, "ruby": hashComment,
}

// CommentStyleFor derives comment syntax from the filename extension,
// defaulting to "//".
func CommentStyleFor(filename string) CommentStyle {
	if style, ok := commentStyles[Ext(filename)]; ok {
		return style
	}
	return slashComment
}
