package rtjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/FocuswithJustin/rtjson/core/errors"
)

// Text in an encoded document is already entity-escaped, so the JSON
// layer must not escape < > & a second time.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Marshal returns the JSON encoding of doc.
func Marshal(doc *Document) ([]byte, error) {
	return marshalNoEscape(doc)
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(doc *Document, prefix, indent string) ([]byte, error) {
	data, err := Marshal(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the JSON encoding of doc to w followed by a newline.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Unmarshal decodes an encoded document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var pe *errors.ParseError
		var ue *errors.UnsupportedError
		if errors.As(err, &pe) || errors.As(err, &ue) {
			return nil, err
		}
		return nil, errors.NewParse("RTJSON", "", err.Error())
	}
	return &doc, nil
}

func orEmpty(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}

func spansOrEmpty(spans []Span) []Span {
	if spans == nil {
		return []Span{}
	}
	return spans
}

func cellsOrEmpty(cells []*Cell) []*Cell {
	if cells == nil {
		return []*Cell{}
	}
	return cells
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		Document []Node `json:"document"`
	}{orEmpty(d.Content)})
}

func (s Span) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 16)
	b = append(b, '[')
	b = strconv.AppendInt(b, int64(s.Mask), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(s.Start), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(s.Length), 10)
	return append(b, ']'), nil
}

func (s *Span) UnmarshalJSON(data []byte) error {
	var triple []int
	if err := json.Unmarshal(data, &triple); err != nil {
		return errors.NewParse("RTJSON", "", "formatting span must be an array of integers")
	}
	if len(triple) != 3 {
		return errors.NewParse("RTJSON", "", fmt.Sprintf("formatting span has %d values, want 3", len(triple)))
	}
	if triple[0] < 0 || triple[0] > 0xff || triple[1] < 0 || triple[2] < 0 {
		return errors.NewParse("RTJSON", "", fmt.Sprintf("formatting span %v out of range", triple))
	}
	*s = Span{Mask: StyleMask(triple[0]), Start: triple[1], Length: triple[2]}
	return nil
}

func (n *BlockQuote) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		C []Node `json:"c"`
	}{ElemBlockQuote, orEmpty(n.Content)})
}

func (n *List) MarshalJSON() ([]byte, error) {
	var start *int
	if n.Ordered && n.Start != 1 {
		start = &n.Start
	}
	items := n.Items
	if items == nil {
		items = []*ListItem{}
	}
	return marshalNoEscape(struct {
		E string      `json:"e"`
		O bool        `json:"o"`
		S *int        `json:"s,omitempty"`
		C []*ListItem `json:"c"`
	}{ElemList, n.Ordered, start, items})
}

func (n *ListItem) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		C []Node `json:"c"`
	}{ElemListItem, orEmpty(n.Content)})
}

func (n *Heading) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		L int    `json:"l"`
		C []Node `json:"c"`
	}{ElemHeading, n.Level, orEmpty(n.Content)})
}

func (n *Paragraph) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		C []Node `json:"c"`
	}{ElemParagraph, orEmpty(n.Content)})
}

func (n *CodeBlock) MarshalJSON() ([]byte, error) {
	lines := n.Lines
	if lines == nil {
		lines = []*Raw{}
	}
	return marshalNoEscape(struct {
		E string `json:"e"`
		L string `json:"l,omitempty"`
		C []*Raw `json:"c"`
	}{ElemCodeBlock, n.Language, lines})
}

func (n *Raw) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		T string `json:"t"`
	}{ElemRaw, n.Text})
}

func (n *HTMLBlock) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		T string `json:"t"`
	}{ElemHTMLBlock, n.Text})
}

func (n *ThematicBreak) MarshalJSON() ([]byte, error) {
	return []byte(`{"e":"hr"}`), nil
}

func (n *Table) MarshalJSON() ([]byte, error) {
	body := make([][]*Cell, len(n.Body))
	for i, row := range n.Body {
		body[i] = cellsOrEmpty(row)
	}
	return marshalNoEscape(struct {
		E string    `json:"e"`
		H []*Cell   `json:"h"`
		B [][]*Cell `json:"b"`
	}{ElemTable, cellsOrEmpty(n.Header), body})
}

func (c *Cell) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		A string `json:"a,omitempty"`
		C []Node `json:"c"`
	}{c.Align, orEmpty(c.Content)})
}

func (n *Text) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E string `json:"e"`
		T string `json:"t"`
		F []Span `json:"f"`
	}{ElemText, n.Text, spansOrEmpty(n.Formatting)})
}

func (n *LineBreak) MarshalJSON() ([]byte, error) {
	return []byte(`{"e":"br"}`), nil
}

func (n *Link) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E     string `json:"e"`
		U     string `json:"u"`
		T     string `json:"t"`
		F     []Span `json:"f"`
		Title string `json:"title,omitempty"`
	}{ElemLink, n.URL, n.Text, spansOrEmpty(n.Formatting), n.Title})
}

func (n *Image) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(struct {
		E     string `json:"e"`
		U     string `json:"u"`
		T     string `json:"t"`
		Title string `json:"title,omitempty"`
	}{ElemImage, n.URL, n.Alt, n.Title})
}

// wireNode is the union of all keys an encoded node may carry.
type wireNode struct {
	E     string            `json:"e"`
	C     []json.RawMessage `json:"c"`
	L     json.RawMessage   `json:"l"`
	O     bool              `json:"o"`
	S     *int              `json:"s"`
	T     string            `json:"t"`
	F     []Span            `json:"f"`
	U     string            `json:"u"`
	Title string            `json:"title"`
	H     []*Cell           `json:"h"`
	B     [][]*Cell         `json:"b"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w struct {
		Document *[]json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Document == nil {
		return errors.NewParse("RTJSON", "", `missing "document" key`)
	}
	nodes, err := decodeNodes(*w.Document)
	if err != nil {
		return err
	}
	d.Content = nodes
	return nil
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var w struct {
		A string            `json:"a"`
		C []json.RawMessage `json:"c"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.A {
	case "", "l", "r", "c":
	default:
		return errors.NewParse("RTJSON", "", fmt.Sprintf("unknown cell alignment %q", w.A))
	}
	nodes, err := decodeNodes(w.C)
	if err != nil {
		return err
	}
	c.Align = w.A
	c.Content = nodes
	return nil
}

func decodeNodes(raws []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(raws))
	for _, raw := range raws {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeNode(raw json.RawMessage) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	switch w.E {
	case ElemBlockQuote:
		c, err := decodeNodes(w.C)
		return &BlockQuote{Content: c}, err
	case ElemList:
		l := &List{Ordered: w.O, Start: 1, Items: []*ListItem{}}
		if w.S != nil {
			l.Start = *w.S
		}
		c, err := decodeNodes(w.C)
		if err != nil {
			return nil, err
		}
		for _, n := range c {
			item, ok := n.(*ListItem)
			if !ok {
				return nil, errors.NewParse("RTJSON", "", fmt.Sprintf("list contains %q, want li", n.Element()))
			}
			l.Items = append(l.Items, item)
		}
		return l, nil
	case ElemListItem:
		c, err := decodeNodes(w.C)
		return &ListItem{Content: c}, err
	case ElemHeading:
		var level int
		if err := json.Unmarshal(w.L, &level); err != nil {
			return nil, errors.NewParse("RTJSON", "", "heading level must be an integer")
		}
		c, err := decodeNodes(w.C)
		return &Heading{Level: level, Content: c}, err
	case ElemParagraph:
		c, err := decodeNodes(w.C)
		return &Paragraph{Content: c}, err
	case ElemCodeBlock:
		cb := &CodeBlock{Lines: []*Raw{}}
		if len(w.L) > 0 {
			if err := json.Unmarshal(w.L, &cb.Language); err != nil {
				return nil, errors.NewParse("RTJSON", "", "code language must be a string")
			}
		}
		c, err := decodeNodes(w.C)
		if err != nil {
			return nil, err
		}
		for _, n := range c {
			raw, ok := n.(*Raw)
			if !ok {
				return nil, errors.NewParse("RTJSON", "", fmt.Sprintf("code block contains %q, want raw", n.Element()))
			}
			cb.Lines = append(cb.Lines, raw)
		}
		return cb, nil
	case ElemRaw:
		return &Raw{Text: w.T}, nil
	case ElemHTMLBlock:
		return &HTMLBlock{Text: w.T}, nil
	case ElemThematicBreak:
		return &ThematicBreak{}, nil
	case ElemTable:
		t := &Table{Header: cellsOrEmpty(w.H), Body: w.B}
		if t.Body == nil {
			t.Body = [][]*Cell{}
		}
		return t, nil
	case ElemText:
		return &Text{Text: w.T, Formatting: spansOrEmpty(w.F)}, nil
	case ElemLineBreak:
		return &LineBreak{}, nil
	case ElemLink:
		return &Link{URL: w.U, Text: w.T, Formatting: spansOrEmpty(w.F), Title: w.Title}, nil
	case ElemImage:
		return &Image{URL: w.U, Alt: w.T, Title: w.Title}, nil
	case "":
		return nil, errors.NewParse("RTJSON", "", `node without "e" key`)
	}
	return nil, errors.NewUnsupported("element", fmt.Sprintf("%q", w.E))
}
