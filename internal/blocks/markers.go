// Package blocks edits named logic blocks delimited by comment markers:
//
//	//----start of user_authentication----
//	...
//	//----end of user_authentication----
//
// The comment syntax is derived from the filename extension.
package blocks

import (
	"errors"
	"fmt"
	"strings"

	"gen1/internal/vfs"
)

var (
	// ErrMarkerNotFound is returned when a start or end marker is missing.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrMarkersExist is returned when inserting markers that are already present.
	ErrMarkersExist = errors.New("code block markers already exist")

	// ErrLineRange is returned for invalid insertion line numbers.
	ErrLineRange = errors.New("invalid line range")
)

// Markers returns the full start and end marker lines for logicName in filename.
func Markers(logicName, filename string) (start, end string) {
	style := vfs.CommentStyleFor(filename)
	start = style.Start + "----start of " + logicName + "----" + style.End
	end = style.Start + "----end of " + logicName + "----" + style.End
	return start, end
}

// Block is a located logic block.
type Block struct {
	Name string
	// Body is the text strictly between the markers.
	Body string
	// StartLine and EndLine are the 0-indexed lines holding the markers.
	StartLine int
	EndLine   int
}

// locate finds the first start marker and the first end marker after it,
// returning the byte offsets of the body.
func locate(content, logicName, filename string) (bodyStart, bodyEnd int, err error) {
	startMarker, endMarker := Markers(logicName, filename)

	i := strings.Index(content, startMarker)
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: start marker for code block '%s'", ErrMarkerNotFound, logicName)
	}
	bodyStart = i + len(startMarker)

	j := strings.Index(content[bodyStart:], endMarker)
	if j < 0 {
		return 0, 0, fmt.Errorf("%w: end marker for code block '%s'", ErrMarkerNotFound, logicName)
	}
	return bodyStart, bodyStart + j, nil
}

// UpdateBlock replaces the body of the named block with newBody, trimmed
// and wrapped in newlines. Text outside the markers is untouched.
func UpdateBlock(content, logicName, newBody, filename string) (string, error) {
	bodyStart, bodyEnd, err := locate(content, logicName, filename)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(content) + len(newBody))
	b.WriteString(content[:bodyStart])
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(newBody))
	b.WriteString("\n")
	b.WriteString(content[bodyEnd:])
	return b.String(), nil
}

// FindBlock returns the named block's body and marker lines.
func FindBlock(content, logicName, filename string) (Block, error) {
	bodyStart, bodyEnd, err := locate(content, logicName, filename)
	if err != nil {
		return Block{}, err
	}
	startMarker, _ := Markers(logicName, filename)
	markerStart := bodyStart - len(startMarker)
	return Block{
		Name:      logicName,
		Body:      content[bodyStart:bodyEnd],
		StartLine: strings.Count(content[:markerStart], "\n"),
		EndLine:   strings.Count(content[:bodyEnd], "\n"),
	}, nil
}

// InsertMarkers wraps lines startLine..endLine (0-indexed, inclusive) in
// block markers. The start marker is inserted before startLine and the end
// marker after endLine. startLine may be endLine+1 for an empty block.
func InsertMarkers(content, logicName string, startLine, endLine int, filename string) (string, error) {
	if startLine < 0 || endLine < 0 {
		return "", fmt.Errorf("%w: line numbers must be non-negative", ErrLineRange)
	}
	if startLine > endLine+1 {
		return "", fmt.Errorf("%w: start line %d is greater than end line %d + 1", ErrLineRange, startLine, endLine)
	}

	startMarker, endMarker := Markers(logicName, filename)
	if strings.Contains(content, startMarker) && strings.Contains(content, endMarker) {
		return "", fmt.Errorf("%w: '%s'", ErrMarkersExist, logicName)
	}

	lines := strings.Split(content, "\n")
	if startLine > len(lines) || endLine > len(lines) {
		return "", fmt.Errorf("%w: line number out of bounds, file has %d lines", ErrLineRange, len(lines))
	}

	lines = insertAt(lines, startLine, startMarker)
	// one for the start marker, one to land after endLine
	lines = insertAt(lines, endLine+2, endMarker)
	return strings.Join(lines, "\n"), nil
}

// insertAt inserts line at index i, appending when i is past the end.
func insertAt(lines []string, i int, line string) []string {
	if i >= len(lines) {
		return append(lines, line)
	}
	lines = append(lines, "")
	copy(lines[i+1:], lines[i:])
	lines[i] = line
	return lines
}
