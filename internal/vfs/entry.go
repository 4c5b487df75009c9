package vfs

import (
	"fmt"
	"strings"
)

const (
	// DirectoryMarker is the persisted value of an explicitly created empty
	// directory.
	DirectoryMarker = "__GEN1_DIRECTORY__"

	// ConversationFile is the reserved path holding the serialized
	// conversation log.
	ConversationFile = "conversations.json"
)

// EntryKind distinguishes files from explicit empty directories.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindEmptyDir
)

func (k EntryKind) String() string {
	if k == KindEmptyDir {
		return "dir"
	}
	return "file"
}

// Entry is one element of the store. Directories that contain anything are
// implicit and never stored; only genuinely empty ones are KindEmptyDir.
type Entry struct {
	Path    string
	Kind    EntryKind
	Content string
}

// IsDir reports whether e is an explicit empty directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindEmptyDir
}

// Raw returns the persisted value of the entry.
func (e Entry) Raw() string {
	if e.Kind == KindEmptyDir {
		return DirectoryMarker
	}
	return e.Content
}

// EntryAt builds an entry from a persisted path/value pair. The path is
// normalized; a marker value is only valid on a directory path and a
// directory path only carries the marker.
func EntryAt(p, raw string) (Entry, error) {
	p = NormalizePath(p)
	if p == "" {
		return Entry{}, ErrEmptyPath
	}
	switch {
	case IsDir(p) && raw == DirectoryMarker:
		return Entry{Path: p, Kind: KindEmptyDir}, nil
	case IsDir(p):
		return Entry{}, fmt.Errorf("%w: directory path %q carries content", ErrTypeMismatch, p)
	case raw == DirectoryMarker:
		return Entry{}, fmt.Errorf("%w: file path %q carries a directory marker", ErrTypeMismatch, p)
	default:
		return Entry{Path: p, Kind: KindFile, Content: raw}, nil
	}
}

func isReserved(p string) bool {
	return strings.TrimSuffix(p, "/") == ConversationFile
}
