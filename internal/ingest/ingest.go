// Package ingest turns source documents in any supported input format into
// document trees and encoded rich-text documents.
package ingest

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/cmarkxml"
	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/core/sexpr"
	"github.com/FocuswithJustin/rtjson/internal/markdown"
)

// Format names an input format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatXML      Format = "xml"
	FormatSexpr    Format = "sexpr"
)

// Formats lists the supported input formats.
var Formats = []Format{FormatMarkdown, FormatXML, FormatSexpr}

var extensionFormats = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".xml":      FormatXML,
	".sexp":     FormatSexpr,
	".tree":     FormatSexpr,
}

// ParseFormat validates a format name. "md" and "cmark" are accepted as
// aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xml", "cmark":
		return FormatXML, nil
	case "sexpr", "sexp":
		return FormatSexpr, nil
	}
	return "", errors.NewUnsupported("input format", name)
}

// DetectFormat picks the format from the file extension of path.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", errors.NewUnsupported("input format", "no format for extension "+ext)
}

// Sniff guesses the format of data. CommonMark XML is recognised by its
// declaration or namespace, S-expressions by a leading '(' or ';' comment.
// Anything else, including Markdown that opens with raw HTML, is Markdown.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return FormatMarkdown
	}
	switch trimmed[0] {
	case '<':
		if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.Contains(trimmed[:min(len(trimmed), 512)], []byte(cmarkxml.Namespace)) {
			return FormatXML
		}
	case '(', ';':
		return FormatSexpr
	}
	return FormatMarkdown
}

// Parse parses data in the given format with the default nesting limit.
func Parse(format Format, data []byte) (*doctree.Element, error) {
	return ParseDepth(format, data, doctree.DefaultMaxDepth)
}

// ParseDepth parses data, rejecting input nested deeper than maxDepth
// with a *errors.LimitError before the tree is built.
func ParseDepth(format Format, data []byte, maxDepth int) (*doctree.Element, error) {
	switch format {
	case FormatMarkdown:
		return markdown.ParseDepth(data, maxDepth)
	case FormatXML:
		return cmarkxml.ParseDepth(data, maxDepth)
	case FormatSexpr:
		return sexpr.ParseDepth(data, maxDepth)
	}
	return nil, errors.NewUnsupported("input format", string(format))
}

// Convert parses data and encodes the tree. maxBytes bounds the input size
// when positive.
func Convert(format Format, data []byte, opts rtjson.Options, maxBytes int) (*rtjson.Document, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, errors.NewLimit("input bytes", maxBytes)
	}
	root, err := ParseDepth(format, data, opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	return rtjson.Encode(root, opts)
}
