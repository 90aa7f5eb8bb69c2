// Package encoding provides the text escaping and raw HTML filtering used
// when encoding document trees.
package encoding

import (
	"strings"
)

// textEscapes maps each byte that EscapeText rewrites to its entity.
var textEscapes = [256]string{
	'"':  "&quot;",
	'&':  "&amp;",
	'<':  "&lt;",
	'>':  "&gt;",
	'\'': "&#x27;",
}

// hrefSafe marks the bytes that EscapeHref copies without percent-encoding.
var hrefSafe [256]bool

func init() {
	for _, c := range []byte("-_.+!*'(),%#@?=;:/&$~") {
		hrefSafe[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		hrefSafe[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		hrefSafe[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		hrefSafe[c] = true
	}
}

// EscapeText replaces " & < > ' with named or numeric entities.
// All other bytes, including UTF-8 sequences, are copied unchanged.
func EscapeText(s string) string {
	i := 0
	for i < len(s) && textEscapes[s[i]] == "" {
		i++
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		if esc := textEscapes[s[i]]; esc != "" {
			b.WriteString(esc)
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

const upperHex = "0123456789ABCDEF"

// EscapeHref percent-encodes a URL for use as a link or image target.
// Bytes in the safe set pass through, except that & and ' are still
// entity-escaped; every other byte becomes %XX.
func EscapeHref(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '&':
			b.WriteString("&amp;")
		case c == '\'':
			b.WriteString("&#x27;")
		case hrefSafe[c]:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

// filteredTags are the raw HTML tag names neutralized by the tag filter.
var filteredTags = []string{
	"title", "textarea", "style", "xmp", "iframe",
	"noembed", "noframes", "script", "plaintext",
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// TagFilter reports whether fragment starts with an opening or closing tag
// whose name is on the filtered list. The name is matched case-insensitively
// and must be followed by whitespace, ">" or "/>".
func TagFilter(fragment string) bool {
	if len(fragment) < 3 || fragment[0] != '<' {
		return false
	}
	i := 1
	if fragment[i] == '/' {
		i++
	}
	rest := fragment[i:]
	for _, tag := range filteredTags {
		if len(rest) < len(tag) || !strings.EqualFold(rest[:len(tag)], tag) {
			continue
		}
		after := rest[len(tag):]
		if after == "" {
			return false
		}
		return isSpace(after[0]) || after[0] == '>' ||
			(after[0] == '/' && len(after) >= 2 && after[1] == '>')
	}
	return false
}

// TagFilterBlock copies input, replacing the "<" of every filtered tag
// with "&lt;". The input is scanned once.
func TagFilterBlock(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	i := 0
	for i < len(input) {
		j := strings.IndexByte(input[i:], '<')
		if j < 0 {
			b.WriteString(input[i:])
			break
		}
		b.WriteString(input[i : i+j])
		i += j
		if TagFilter(input[i:]) {
			b.WriteString("&lt;")
		} else {
			b.WriteByte('<')
		}
		i++
	}
	return b.String()
}

// EscapeXMLText escapes only the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
