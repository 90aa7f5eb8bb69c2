// Package markdown parses Markdown with goldmark and converts the goldmark
// AST into a document tree.
package markdown

import (
	"bytes"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser converts Markdown source into document trees.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a parser for GitHub Flavored Markdown when gfm is set
// and for plain CommonMark otherwise.
func NewParser(gfm bool) *Parser {
	var opts []goldmark.Option
	if gfm {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	return &Parser{md: goldmark.New(opts...)}
}

var defaultParser = NewParser(true)

// Parse parses src as GitHub Flavored Markdown.
func Parse(src []byte) (*doctree.Element, error) {
	return defaultParser.Parse(src)
}

// ParseDepth parses src as GitHub Flavored Markdown with an explicit
// nesting limit.
func ParseDepth(src []byte, maxDepth int) (*doctree.Element, error) {
	return defaultParser.ParseDepth(src, maxDepth)
}

// Parse parses src and converts the result, with the default nesting
// limit.
func (p *Parser) Parse(src []byte) (*doctree.Element, error) {
	return p.ParseDepth(src, doctree.DefaultMaxDepth)
}

// ParseDepth parses src and converts the result. Lines that open more
// than maxDepth block quotes and list items fail with a
// *errors.LimitError before goldmark runs. A limit of 0 or less means
// doctree.DefaultMaxDepth.
func (p *Parser) ParseDepth(src []byte, maxDepth int) (*doctree.Element, error) {
	if maxDepth <= 0 {
		maxDepth = doctree.DefaultMaxDepth
	}
	if err := checkNesting(src, maxDepth); err != nil {
		return nil, err
	}
	root := p.md.Parser().Parse(text.NewReader(src))
	c := &converter{source: src}
	return c.node(root)
}

type converter struct {
	source []byte
}

// node converts n and its subtree. Text line-break flags become sibling
// break nodes, so children are collected through appendNode.
func (c *converter) node(n ast.Node) (*doctree.Element, error) {
	if al, ok := n.(*ast.AutoLink); ok {
		return c.autoLink(al), nil
	}
	content, err := c.content(n)
	if err != nil {
		return nil, err
	}
	el := doctree.New(content)
	if isLeaf(content) {
		return el, nil
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if err := c.appendNode(el, child); err != nil {
			return nil, err
		}
	}
	return el, nil
}

func (c *converter) appendNode(parent *doctree.Element, n ast.Node) error {
	if n.Kind() == east.KindTaskCheckBox {
		return nil
	}
	el, err := c.node(n)
	if err != nil {
		return err
	}
	parent.AppendChild(el)

	if t, ok := n.(*ast.Text); ok {
		switch {
		case t.HardLineBreak():
			parent.AppendChild(doctree.New(&doctree.LineBreak{}))
		case t.SoftLineBreak():
			parent.AppendChild(doctree.New(&doctree.SoftBreak{}))
		}
	}
	return nil
}

func isLeaf(c doctree.Content) bool {
	switch c.(type) {
	case *doctree.Text, *doctree.Code, *doctree.CodeBlock, *doctree.HTMLBlock,
		*doctree.HTMLInline, *doctree.ThematicBreak:
		return true
	}
	return false
}

func (c *converter) content(n ast.Node) (doctree.Content, error) {
	switch v := n.(type) {
	case *ast.Document:
		return &doctree.Document{}, nil
	case *ast.Heading:
		return &doctree.Heading{Level: v.Level}, nil
	case *ast.Paragraph, *ast.TextBlock:
		return &doctree.Paragraph{}, nil
	case *ast.ThematicBreak:
		return &doctree.ThematicBreak{}, nil
	case *ast.Blockquote:
		return &doctree.BlockQuote{}, nil
	case *ast.List:
		l := &doctree.List{Tight: v.IsTight, Start: 1}
		if v.IsOrdered() {
			l.Type = doctree.OrderedList
			l.Start = v.Start
		}
		return l, nil
	case *ast.ListItem:
		return &doctree.Item{}, nil
	case *ast.FencedCodeBlock:
		info := ""
		if v.Info != nil {
			info = string(resolve(v.Info.Segment.Value(c.source)))
		}
		return &doctree.CodeBlock{Info: info, Literal: c.lines(v.Lines())}, nil
	case *ast.CodeBlock:
		return &doctree.CodeBlock{Literal: c.lines(v.Lines())}, nil
	case *ast.HTMLBlock:
		lit := c.lines(v.Lines())
		if v.HasClosure() {
			lit += string(v.ClosureLine.Value(c.source))
		}
		return &doctree.HTMLBlock{Literal: lit}, nil
	case *ast.Text:
		seg := v.Segment.Value(c.source)
		if !v.IsRaw() {
			seg = resolve(seg)
		}
		return &doctree.Text{Literal: string(seg)}, nil
	case *ast.String:
		return &doctree.Text{Literal: string(v.Value)}, nil
	case *ast.CodeSpan:
		return &doctree.Code{Literal: c.codeSpan(v)}, nil
	case *ast.Emphasis:
		if v.Level >= 2 {
			return &doctree.Strong{}, nil
		}
		return &doctree.Emph{}, nil
	case *ast.Link:
		return &doctree.Link{URL: string(resolve(v.Destination)), Title: string(resolve(v.Title))}, nil
	case *ast.Image:
		return &doctree.Image{URL: string(resolve(v.Destination)), Title: string(resolve(v.Title))}, nil
	case *ast.RawHTML:
		var b bytes.Buffer
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return &doctree.HTMLInline{Literal: b.String()}, nil
	case *east.Table:
		t := &doctree.Table{Alignments: make([]doctree.Alignment, len(v.Alignments))}
		for i, a := range v.Alignments {
			t.Alignments[i] = alignment(a)
		}
		return t, nil
	case *east.TableHeader:
		return &doctree.TableRow{Header: true}, nil
	case *east.TableRow:
		return &doctree.TableRow{}, nil
	case *east.TableCell:
		return &doctree.TableCell{}, nil
	case *east.Strikethrough:
		return &doctree.Strikethrough{}, nil
	}
	return nil, errors.NewUnsupported("markdown node", n.Kind().String())
}

// autoLink expands an autolink into a link whose text is its label.
// Email autolinks get a mailto: scheme.
func (c *converter) autoLink(n *ast.AutoLink) *doctree.Element {
	url := n.URL(c.source)
	if n.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(url), []byte("mailto:")) {
		url = append([]byte("mailto:"), url...)
	}
	return doctree.New(&doctree.Link{URL: string(url)},
		doctree.New(&doctree.Text{Literal: string(n.Label(c.source))}),
	)
}

// lines joins the raw source lines of a block.
func (c *converter) lines(lines *text.Segments) string {
	var b bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}

// codeSpan joins the text of a code span. Line endings inside the span
// become spaces.
func (c *converter) codeSpan(n *ast.CodeSpan) string {
	var b bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			v := t.Segment.Value(c.source)
			if bytes.HasSuffix(v, []byte("\n")) {
				b.Write(v[:len(v)-1])
				b.WriteByte(' ')
				continue
			}
			b.Write(v)
		case *ast.String:
			b.Write(t.Value)
		}
	}
	return b.String()
}

// resolve applies backslash escapes and character references the way an
// HTML renderer would when writing the text.
func resolve(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}

func alignment(a east.Alignment) doctree.Alignment {
	switch a {
	case east.AlignLeft:
		return doctree.AlignLeft
	case east.AlignRight:
		return doctree.AlignRight
	case east.AlignCenter:
		return doctree.AlignCenter
	}
	return doctree.AlignNone
}
