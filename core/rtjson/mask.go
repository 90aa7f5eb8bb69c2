// Package rtjson encodes document trees as rich-text JSON (RTJSON).
//
// Inline styling is flattened: every text-bearing node carries one string
// and a list of formatting spans, each a (mask, start, length) triple over
// byte offsets of that string. Link anchor text and table cell text are
// separate scopes with their own offset space.
package rtjson

import "strings"

// StyleMask is a set of inline styles. Each style owns one bit, so the
// styles active over a range combine with bitwise OR.
type StyleMask uint8

const (
	Bold          StyleMask = 1
	Italic        StyleMask = 2
	Strikethrough StyleMask = 8
	Superscript   StyleMask = 32
	Code          StyleMask = 64
)

var styleNames = []struct {
	mask StyleMask
	name string
}{
	{Bold, "bold"},
	{Italic, "italic"},
	{Strikethrough, "strikethrough"},
	{Superscript, "superscript"},
	{Code, "code"},
}

// Has reports whether all styles of other are set in m.
func (m StyleMask) Has(other StyleMask) bool {
	return m&other == other
}

// String returns the style names joined by "|", for example "bold|italic".
func (m StyleMask) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	for _, s := range styleNames {
		if m&s.mask != 0 {
			names = append(names, s.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "|")
}
