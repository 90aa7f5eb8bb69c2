// Package doctree defines the read-only document tree consumed by the
// encoder: a closed set of node contents and a navigation interface.
//
// Trees are produced by parsers outside this module (see the markdown,
// cmarkxml and sexpr adapters). The encoder never mutates them.
package doctree

// Kind identifies the variant of a node's Content.
type Kind int

const (
	KindDocument Kind = iota
	KindBlockQuote
	KindList
	KindItem
	KindHeading
	KindCodeBlock
	KindHTMLBlock
	KindThematicBreak
	KindParagraph
	KindTable
	KindTableRow
	KindTableCell
	KindText
	KindLineBreak
	KindSoftBreak
	KindCode
	KindHTMLInline
	KindStrong
	KindEmph
	KindStrikethrough
	KindSuperscript
	KindLink
	KindImage
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindBlockQuote:    "block_quote",
	KindList:          "list",
	KindItem:          "item",
	KindHeading:       "heading",
	KindCodeBlock:     "code_block",
	KindHTMLBlock:     "html_block",
	KindThematicBreak: "thematic_break",
	KindParagraph:     "paragraph",
	KindTable:         "table",
	KindTableRow:      "table_row",
	KindTableCell:     "table_cell",
	KindText:          "text",
	KindLineBreak:     "linebreak",
	KindSoftBreak:     "softbreak",
	KindCode:          "code",
	KindHTMLInline:    "html_inline",
	KindStrong:        "strong",
	KindEmph:          "emph",
	KindStrikethrough: "strikethrough",
	KindSuperscript:   "superscript",
	KindLink:          "link",
	KindImage:         "image",
}

// String returns the snake_case name of the kind, matching the element
// names of the CommonMark XML format where one exists.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsInline reports whether nodes of this kind occur in inline content.
func (k Kind) IsInline() bool {
	return k >= KindText && k <= KindImage
}

// KindByName returns the kind whose String is name.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Content is the payload of a node. The set of implementations is closed:
// only the types in this package satisfy it.
type Content interface {
	Kind() Kind
	content()
}

// ListType distinguishes bullet lists from ordered lists.
type ListType int

const (
	BulletList ListType = iota
	OrderedList
)

func (t ListType) String() string {
	if t == OrderedList {
		return "ordered"
	}
	return "bullet"
}

// Alignment is a table column alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return "none"
}

// ParseAlignment is the inverse of Alignment.String. The empty string is
// AlignNone.
func ParseAlignment(s string) (Alignment, bool) {
	switch s {
	case "left":
		return AlignLeft, true
	case "center":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	case "none", "":
		return AlignNone, true
	}
	return AlignNone, false
}

// Block contents.

type Document struct{}

type BlockQuote struct{}

// List is a bullet or ordered list. Tight lists render their item
// paragraphs without a paragraph wrapper.
type List struct {
	Type  ListType
	Tight bool
	Start int // first number of an ordered list
}

type Item struct{}

// Heading carries a level from 1 to 6.
type Heading struct {
	Level int
}

// CodeBlock holds the info string of a fenced block (empty for indented
// blocks) and the literal body.
type CodeBlock struct {
	Info    string
	Literal string
}

type HTMLBlock struct {
	Literal string
}

type ThematicBreak struct{}

type Paragraph struct{}

// Table holds one alignment per column.
type Table struct {
	Alignments []Alignment
}

type TableRow struct {
	Header bool
}

type TableCell struct{}

// Inline contents.

type Text struct {
	Literal string
}

type LineBreak struct{}

type SoftBreak struct{}

// Code is an inline code span. It has no children.
type Code struct {
	Literal string
}

type HTMLInline struct {
	Literal string
}

type Strong struct{}

type Emph struct{}

type Strikethrough struct{}

type Superscript struct{}

// Link children form the anchor text.
type Link struct {
	URL   string
	Title string
}

// Image children form the alt text.
type Image struct {
	URL   string
	Title string
}

func (*Document) Kind() Kind      { return KindDocument }
func (*BlockQuote) Kind() Kind    { return KindBlockQuote }
func (*List) Kind() Kind          { return KindList }
func (*Item) Kind() Kind          { return KindItem }
func (*Heading) Kind() Kind       { return KindHeading }
func (*CodeBlock) Kind() Kind     { return KindCodeBlock }
func (*HTMLBlock) Kind() Kind     { return KindHTMLBlock }
func (*ThematicBreak) Kind() Kind { return KindThematicBreak }
func (*Paragraph) Kind() Kind     { return KindParagraph }
func (*Table) Kind() Kind         { return KindTable }
func (*TableRow) Kind() Kind      { return KindTableRow }
func (*TableCell) Kind() Kind     { return KindTableCell }
func (*Text) Kind() Kind          { return KindText }
func (*LineBreak) Kind() Kind     { return KindLineBreak }
func (*SoftBreak) Kind() Kind     { return KindSoftBreak }
func (*Code) Kind() Kind          { return KindCode }
func (*HTMLInline) Kind() Kind    { return KindHTMLInline }
func (*Strong) Kind() Kind        { return KindStrong }
func (*Emph) Kind() Kind          { return KindEmph }
func (*Strikethrough) Kind() Kind { return KindStrikethrough }
func (*Superscript) Kind() Kind   { return KindSuperscript }
func (*Link) Kind() Kind          { return KindLink }
func (*Image) Kind() Kind         { return KindImage }

func (*Document) content()      {}
func (*BlockQuote) content()    {}
func (*List) content()          {}
func (*Item) content()          {}
func (*Heading) content()       {}
func (*CodeBlock) content()     {}
func (*HTMLBlock) content()     {}
func (*ThematicBreak) content() {}
func (*Paragraph) content()     {}
func (*Table) content()         {}
func (*TableRow) content()      {}
func (*TableCell) content()     {}
func (*Text) content()          {}
func (*LineBreak) content()     {}
func (*SoftBreak) content()     {}
func (*Code) content()          {}
func (*HTMLInline) content()    {}
func (*Strong) content()        {}
func (*Emph) content()          {}
func (*Strikethrough) content() {}
func (*Superscript) content()   {}
func (*Link) content()          {}
func (*Image) content()         {}
