package rtjson

// Span is a finished formatting range: Length bytes starting at Start in
// the text of the node that owns it, styled with Mask.
type Span struct {
	Mask   StyleMask
	Start  int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// Document is the root of an encoded tree.
type Document struct {
	Content []Node
}

// Node is an element of an encoded document. The set of implementations
// is closed.
type Node interface {
	// Element returns the value of the "e" key for the node.
	Element() string
	node()
}

// Element names.
const (
	ElemBlockQuote    = "blockquote"
	ElemList          = "list"
	ElemListItem      = "li"
	ElemHeading       = "h"
	ElemParagraph     = "par"
	ElemCodeBlock     = "code"
	ElemRaw           = "raw"
	ElemHTMLBlock     = "html"
	ElemThematicBreak = "hr"
	ElemTable         = "table"
	ElemText          = "text"
	ElemLineBreak     = "br"
	ElemLink          = "link"
	ElemImage         = "img"
)

type BlockQuote struct {
	Content []Node
}

// List holds list items. Start is the first number of an ordered list; it
// is only serialized when it differs from 1.
type List struct {
	Ordered bool
	Start   int
	Items   []*ListItem
}

type ListItem struct {
	Content []Node
}

type Heading struct {
	Level   int
	Content []Node
}

type Paragraph struct {
	Content []Node
}

// CodeBlock holds the escaped body of a code block, one Raw per line when
// lines are split.
type CodeBlock struct {
	Language string
	Lines    []*Raw
}

type Raw struct {
	Text string
}

type HTMLBlock struct {
	Text string
}

type ThematicBreak struct{}

// Table holds the first header row and the remaining rows. Body is never
// nil so that header-only tables encode "b":[].
type Table struct {
	Header []*Cell
	Body   [][]*Cell
}

// Cell is a table cell. Align is "l", "r", "c" or empty.
type Cell struct {
	Align   string
	Content []Node
}

// Text is a run of escaped text with its formatting spans.
type Text struct {
	Text       string
	Formatting []Span
}

type LineBreak struct{}

// Link carries its anchor text as a flat run with its own spans.
type Link struct {
	URL        string
	Text       string
	Formatting []Span
	Title      string
}

// Image carries its alt text unformatted.
type Image struct {
	URL   string
	Alt   string
	Title string
}

func (*BlockQuote) Element() string    { return ElemBlockQuote }
func (*List) Element() string          { return ElemList }
func (*ListItem) Element() string      { return ElemListItem }
func (*Heading) Element() string       { return ElemHeading }
func (*Paragraph) Element() string     { return ElemParagraph }
func (*CodeBlock) Element() string     { return ElemCodeBlock }
func (*Raw) Element() string           { return ElemRaw }
func (*HTMLBlock) Element() string     { return ElemHTMLBlock }
func (*ThematicBreak) Element() string { return ElemThematicBreak }
func (*Table) Element() string         { return ElemTable }
func (*Text) Element() string          { return ElemText }
func (*LineBreak) Element() string     { return ElemLineBreak }
func (*Link) Element() string          { return ElemLink }
func (*Image) Element() string         { return ElemImage }

func (*BlockQuote) node()    {}
func (*List) node()          {}
func (*ListItem) node()      {}
func (*Heading) node()       {}
func (*Paragraph) node()     {}
func (*CodeBlock) node()     {}
func (*Raw) node()           {}
func (*HTMLBlock) node()     {}
func (*ThematicBreak) node() {}
func (*Table) node()         {}
func (*Text) node()          {}
func (*LineBreak) node()     {}
func (*Link) node()          {}
func (*Image) node()         {}
