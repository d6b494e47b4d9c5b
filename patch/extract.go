package patch

import "strings"

// Extract returns the outermost balanced brace-delimited span within raw.
// Braces inside quoted strings (including escaped quotes) do not affect
// nesting. Returns an error wrapping ErrNoJSON when no opening brace exists
// or the span never closes.
//
// Extract is a pure lexical scan; it does not validate that the span is
// well-formed JSON.
func Extract(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSON
}
