package sexpr

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
)

// Print writes the tree rooted at n in the syntax accepted by Parse.
// Block containers put each child on its own line; inline content stays
// on the line of its parent.
func Print(w io.Writer, n doctree.Node) error {
	var buf bytes.Buffer
	if err := printNode(&buf, n, 0); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

// Marshal returns the S-expression form of the tree rooted at n.
func Marshal(n doctree.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Print(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func printNode(b *bytes.Buffer, n doctree.Node, depth int) error {
	c := n.Content()
	if c == nil {
		return errors.NewStructure("", "node without content")
	}
	b.WriteByte('(')
	b.WriteString(c.Kind().String())

	switch v := c.(type) {
	case *doctree.List:
		if v.Type == doctree.OrderedList {
			b.WriteString(" type=ordered start=")
			b.WriteString(strconv.Itoa(v.Start))
		}
		if v.Tight {
			b.WriteString(" tight=true")
		}
	case *doctree.Heading:
		b.WriteString(" level=")
		b.WriteString(strconv.Itoa(v.Level))
	case *doctree.CodeBlock:
		if v.Info != "" {
			b.WriteString(" info=")
			b.WriteString(strconv.Quote(v.Info))
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(v.Literal))
	case *doctree.HTMLBlock:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(v.Literal))
	case *doctree.Table:
		if len(v.Alignments) > 0 {
			names := make([]string, len(v.Alignments))
			for i, a := range v.Alignments {
				names[i] = a.String()
			}
			b.WriteString(" align=")
			b.WriteString(strconv.Quote(strings.Join(names, " ")))
		}
	case *doctree.TableRow:
		if v.Header {
			b.WriteString(" header=true")
		}
	case *doctree.Text:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(v.Literal))
	case *doctree.Code:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(v.Literal))
	case *doctree.HTMLInline:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(v.Literal))
	case *doctree.Link:
		writeTarget(b, v.URL, v.Title)
	case *doctree.Image:
		writeTarget(b, v.URL, v.Title)
	}

	for child := n.FirstChild(); child != nil; child = child.Next() {
		if ck := child.Content(); ck != nil && ck.Kind().IsInline() {
			b.WriteByte(' ')
			if err := printNode(b, child, depth+1); err != nil {
				return err
			}
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth+1))
		if err := printNode(b, child, depth+1); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

func writeTarget(b *bytes.Buffer, url, title string) {
	b.WriteString(" url=")
	b.WriteString(strconv.Quote(url))
	if title != "" {
		b.WriteString(" title=")
		b.WriteString(strconv.Quote(title))
	}
}
