// Package cmarkxml reads and writes document trees in the CommonMark XML
// format produced by `cmark -t xml` and its GFM variants.
//
// Security Notes:
//   - The xmlquery parser is built on Go's encoding/xml, which never fetches
//     external entities. The DOCTYPE line written by cmark is ignored.
package cmarkxml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Namespace is the XML namespace of CommonMark documents.
const Namespace = "http://commonmark.org/xml/1.0"

const formatName = "CommonMark XML"

// documentExpr finds the document element whatever namespace prefix it uses.
var documentExpr = xpath.MustCompile("//*[local-name()='document']")

// Parse parses a CommonMark XML document into a tree nested at most
// doctree.DefaultMaxDepth deep.
func Parse(data []byte) (*doctree.Element, error) {
	return ParseDepth(data, doctree.DefaultMaxDepth)
}

// ParseDepth is Parse with an explicit nesting limit. A limit of 0 or
// less means doctree.DefaultMaxDepth.
func ParseDepth(data []byte, maxDepth int) (*doctree.Element, error) {
	if maxDepth <= 0 {
		maxDepth = doctree.DefaultMaxDepth
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: formatName, Message: err.Error()}
	}

	top := xmlquery.QuerySelector(root, documentExpr)
	if top == nil {
		return nil, errors.NewParse(formatName, "", "no document element")
	}
	return build(top, 1, maxDepth)
}

// isLiteral reports whether elements of kind k hold their content as text
// instead of children.
func isLiteral(k doctree.Kind) bool {
	switch k {
	case doctree.KindText, doctree.KindCode, doctree.KindCodeBlock,
		doctree.KindHTMLBlock, doctree.KindHTMLInline:
		return true
	}
	return false
}

func build(n *xmlquery.Node, depth, maxDepth int) (*doctree.Element, error) {
	if depth > maxDepth {
		return nil, errors.NewLimit("nesting depth", maxDepth)
	}
	name := n.Data
	header := false
	if name == "table_header" {
		name, header = "table_row", true
	}
	kind, ok := doctree.KindByName(name)
	if !ok {
		return nil, errors.NewUnsupported(formatName+" element", fmt.Sprintf("<%s>", n.Data))
	}

	content, err := contentFor(kind, n, header)
	if err != nil {
		return nil, err
	}
	el := doctree.New(content)
	if isLiteral(kind) {
		return el, nil
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			c, err := build(child, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			el.AppendChild(c)
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(child.Data) != "" {
				return nil, errors.NewParse(formatName, "", fmt.Sprintf("unexpected text %q in <%s>", child.Data, n.Data))
			}
		}
	}
	return el, nil
}

func contentFor(kind doctree.Kind, n *xmlquery.Node, header bool) (doctree.Content, error) {
	switch kind {
	case doctree.KindDocument:
		return &doctree.Document{}, nil
	case doctree.KindBlockQuote:
		return &doctree.BlockQuote{}, nil
	case doctree.KindList:
		return listContent(n)
	case doctree.KindItem:
		return &doctree.Item{}, nil
	case doctree.KindHeading:
		level, err := intAttr(n, "level", 0)
		if err != nil {
			return nil, err
		}
		if level < 1 || level > 6 {
			return nil, badAttr(n, "level", "must be between 1 and 6")
		}
		return &doctree.Heading{Level: level}, nil
	case doctree.KindCodeBlock:
		return &doctree.CodeBlock{Info: n.SelectAttr("info"), Literal: n.InnerText()}, nil
	case doctree.KindHTMLBlock:
		return &doctree.HTMLBlock{Literal: n.InnerText()}, nil
	case doctree.KindThematicBreak:
		return &doctree.ThematicBreak{}, nil
	case doctree.KindParagraph:
		return &doctree.Paragraph{}, nil
	case doctree.KindTable:
		return tableContent(n)
	case doctree.KindTableRow:
		return &doctree.TableRow{Header: header || n.SelectAttr("header") == "true"}, nil
	case doctree.KindTableCell:
		return &doctree.TableCell{}, nil
	case doctree.KindText:
		return &doctree.Text{Literal: n.InnerText()}, nil
	case doctree.KindLineBreak:
		return &doctree.LineBreak{}, nil
	case doctree.KindSoftBreak:
		return &doctree.SoftBreak{}, nil
	case doctree.KindCode:
		return &doctree.Code{Literal: n.InnerText()}, nil
	case doctree.KindHTMLInline:
		return &doctree.HTMLInline{Literal: n.InnerText()}, nil
	case doctree.KindStrong:
		return &doctree.Strong{}, nil
	case doctree.KindEmph:
		return &doctree.Emph{}, nil
	case doctree.KindStrikethrough:
		return &doctree.Strikethrough{}, nil
	case doctree.KindSuperscript:
		return &doctree.Superscript{}, nil
	case doctree.KindLink:
		return &doctree.Link{URL: n.SelectAttr("destination"), Title: n.SelectAttr("title")}, nil
	case doctree.KindImage:
		return &doctree.Image{URL: n.SelectAttr("destination"), Title: n.SelectAttr("title")}, nil
	}
	return nil, errors.NewUnsupported(formatName+" element", fmt.Sprintf("<%s>", n.Data))
}

func listContent(n *xmlquery.Node) (doctree.Content, error) {
	l := &doctree.List{Start: 1}
	switch n.SelectAttr("type") {
	case "", "bullet":
		l.Type = doctree.BulletList
	case "ordered":
		l.Type = doctree.OrderedList
	default:
		return nil, badAttr(n, "type", "must be bullet or ordered")
	}
	switch n.SelectAttr("tight") {
	case "", "false":
	case "true":
		l.Tight = true
	default:
		return nil, badAttr(n, "tight", "must be true or false")
	}
	start, err := intAttr(n, "start", 1)
	if err != nil {
		return nil, err
	}
	l.Start = start
	return l, nil
}

// tableContent reads the column alignments from the cells of the first
// row. cmark writes them on every cell.
func tableContent(n *xmlquery.Node) (doctree.Content, error) {
	t := &doctree.Table{}
	for row := n.FirstChild; row != nil; row = row.NextSibling {
		if row.Type != xmlquery.ElementNode {
			continue
		}
		for cell := row.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.Type != xmlquery.ElementNode {
				continue
			}
			a, ok := doctree.ParseAlignment(cell.SelectAttr("align"))
			if !ok {
				return nil, badAttr(cell, "align", "must be left, center or right")
			}
			t.Alignments = append(t.Alignments, a)
		}
		break
	}
	return t, nil
}

func intAttr(n *xmlquery.Node, name string, def int) (int, error) {
	v := n.SelectAttr(name)
	if v == "" {
		if def == 0 {
			return 0, badAttr(n, name, "is required")
		}
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, badAttr(n, name, "must be an integer")
	}
	return i, nil
}

func badAttr(n *xmlquery.Node, name, msg string) error {
	return errors.NewParse(formatName, "", fmt.Sprintf("attribute %s of <%s> %s", name, n.Data, msg))
}
