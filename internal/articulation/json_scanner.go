package articulation

import "strings"

// scanObject returns the index just past the JSON object that opens at
// s[start], or -1 when the braces never balance. It handles nested braces
// and string escaping; brace characters inside strings are ignored.
//
// Iterating bytes is safe for the ASCII delimiters ({, }, ", \) because
// UTF-8 guarantees ASCII bytes never appear inside a multi-byte sequence.
func scanObject(s string, start int) int {
	if start >= len(s) || s[start] != '{' {
		return -1
	}
	var depth int
	var inString, escape bool

	for i := start; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// lazyObjectEnd finds the earliest '}' after start for which accept reports
// a well-formed continuation. It is the fallback for headers whose braces
// do not balance, such as a truncated string literal.
func lazyObjectEnd(s string, start int, accept func(after int) bool) int {
	for i := start; i < len(s); {
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			return -1
		}
		end := i + j + 1
		if accept(end) {
			return end
		}
		i = end
	}
	return -1
}
