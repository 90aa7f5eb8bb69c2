package markdown

import (
	"bytes"

	"github.com/FocuswithJustin/rtjson/core/errors"
)

// checkNesting rejects src when a line opens more containers than
// maxDepth allows. goldmark re-enters every open container on each line,
// so one line of n block quote or list markers costs O(n²) before any
// depth check on the tree could run.
//
// The count covers the markers at the start of each line. It ignores
// fenced code, HTML blocks and paragraph continuation, so such lines can
// be overcounted, but only a line with maxDepth leading markers is
// rejected and the tree of a real container line that long is deeper than
// maxDepth anyway.
func checkNesting(src []byte, maxDepth int) error {
	for len(src) > 0 {
		line := src
		if i := bytes.IndexByte(src, '\n'); i >= 0 {
			line, src = src[:i], src[i+1:]
		} else {
			src = nil
		}
		// The document node takes one level.
		if 1+leadingMarkers(line, maxDepth) > maxDepth {
			return errors.NewLimit("nesting depth", maxDepth)
		}
	}
	return nil
}

// leadingMarkers counts the block quote and list markers that open line,
// stopping once the count passes limit.
func leadingMarkers(line []byte, limit int) int {
	i := skipSpaces(line, 0, 3)
	if i < 0 {
		// Indented code.
		return 0
	}
	hrStart, hrChar := breakSuffix(line)
	n := 0
	for i < len(line) && n <= limit {
		switch c := line[i]; {
		case c == '>':
			i++
			if i = skipSpaces(line, i, 4); i < 0 {
				return n + 1
			}
		case c == '-' || c == '*' || c == '+':
			if !markerEnd(line, i+1) || (i >= hrStart && c == hrChar && atLeastThree(line[i:], c)) {
				return n
			}
			i++
			if i = skipSpaces(line, i, 4); i < 0 {
				return n + 1
			}
		case c >= '0' && c <= '9':
			j := i
			for j < len(line) && j-i < 9 && line[j] >= '0' && line[j] <= '9' {
				j++
			}
			if j == len(line) || (line[j] != '.' && line[j] != ')') || !markerEnd(line, j+1) {
				return n
			}
			if i = skipSpaces(line, j+1, 4); i < 0 {
				return n + 1
			}
		default:
			return n
		}
		n++
	}
	return n
}

// skipSpaces skips at most max spaces from i. It returns -1 when more
// follow, which makes the rest of the line indented code.
func skipSpaces(line []byte, i, max int) int {
	j := i
	for j < len(line) && line[j] == ' ' {
		j++
	}
	if j-i > max && j < len(line) {
		return -1
	}
	return j
}

// markerEnd reports whether a list marker ending before i is followed by
// whitespace or the end of the line.
func markerEnd(line []byte, i int) bool {
	return i == len(line) || line[i] == ' ' || line[i] == '\t'
}

// breakSuffix finds the trailing run of line made of one thematic break
// character and whitespace. A bullet inside it starts a thematic break,
// not a list, when at least three of the character remain.
func breakSuffix(line []byte) (int, byte) {
	i := len(line)
	var c byte
	for i > 0 {
		b := line[i-1]
		switch {
		case b == ' ' || b == '\t' || b == '\r':
		case c == 0 && (b == '-' || b == '*' || b == '_'):
			c = b
		case b != c:
			return i, c
		}
		i--
	}
	return i, c
}

func atLeastThree(rest []byte, c byte) bool {
	count := 0
	for _, b := range rest {
		if b == c {
			if count++; count == 3 {
				return true
			}
		}
	}
	return false
}
