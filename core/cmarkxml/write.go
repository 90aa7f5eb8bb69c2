package cmarkxml

import (
	"bytes"
	"io"
	"strconv"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/encoding"
	"github.com/FocuswithJustin/rtjson/core/errors"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE document SYSTEM "CommonMark.dtd">
`

// Write serializes the tree rooted at n as CommonMark XML, indenting
// nested elements by two spaces the way cmark does.
func Write(w io.Writer, n doctree.Node) error {
	var buf bytes.Buffer
	buf.WriteString(header)
	if err := writeNode(&buf, n, 0, nil, 0); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

// Marshal returns the CommonMark XML form of the tree rooted at n.
func Marshal(n doctree.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type attr struct {
	name, value string
}

// writeNode writes n at depth. aligns and col locate a table cell in its
// table so that it can carry the column alignment.
func writeNode(w *bytes.Buffer, n doctree.Node, depth int, aligns []doctree.Alignment, col int) error {
	c := n.Content()
	if c == nil {
		return errors.NewStructure("", "node without content")
	}
	name := c.Kind().String()
	var attrs []attr
	literal, isLit := "", false

	switch v := c.(type) {
	case *doctree.Document:
		attrs = []attr{{"xmlns", Namespace}}
	case *doctree.List:
		if v.Type == doctree.OrderedList {
			attrs = []attr{{"type", "ordered"}, {"start", strconv.Itoa(v.Start)}, {"delim", "period"}}
		} else {
			attrs = []attr{{"type", "bullet"}}
		}
		attrs = append(attrs, attr{"tight", strconv.FormatBool(v.Tight)})
	case *doctree.Heading:
		attrs = []attr{{"level", strconv.Itoa(v.Level)}}
	case *doctree.CodeBlock:
		if v.Info != "" {
			attrs = []attr{{"info", v.Info}}
		}
		literal, isLit = v.Literal, true
	case *doctree.HTMLBlock:
		literal, isLit = v.Literal, true
	case *doctree.Text:
		literal, isLit = v.Literal, true
	case *doctree.Code:
		literal, isLit = v.Literal, true
	case *doctree.HTMLInline:
		literal, isLit = v.Literal, true
	case *doctree.Link:
		attrs = []attr{{"destination", v.URL}, {"title", v.Title}}
	case *doctree.Image:
		attrs = []attr{{"destination", v.URL}, {"title", v.Title}}
	case *doctree.Table:
		aligns = v.Alignments
	case *doctree.TableRow:
		if v.Header {
			name = "table_header"
		}
	case *doctree.TableCell:
		if col < len(aligns) && aligns[col] != doctree.AlignNone {
			attrs = []attr{{"align", aligns[col].String()}}
		}
	}

	writeIndent(w, depth)
	w.WriteString("<")
	w.WriteString(name)
	for _, a := range attrs {
		w.WriteString(" ")
		w.WriteString(a.name)
		w.WriteString("=\"")
		w.WriteString(encoding.EscapeXMLAttr(a.value))
		w.WriteString("\"")
	}

	if isLit {
		w.WriteString(` xml:space="preserve">`)
		w.WriteString(encoding.EscapeXMLText(literal))
		w.WriteString("</")
		w.WriteString(name)
		w.WriteString(">\n")
		return nil
	}
	if n.FirstChild() == nil {
		w.WriteString(" />\n")
		return nil
	}

	w.WriteString(">\n")
	i := 0
	for child := n.FirstChild(); child != nil; child = child.Next() {
		if err := writeNode(w, child, depth+1, aligns, i); err != nil {
			return err
		}
		i++
	}
	writeIndent(w, depth)
	w.WriteString("</")
	w.WriteString(name)
	w.WriteString(">\n")
	return nil
}

func writeIndent(w *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString("  ")
	}
}
