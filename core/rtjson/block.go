package rtjson

import (
	"strings"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/encoding"
)

// blocks encodes the children of a container block.
func (e *encoder) blocks(n doctree.Node) []Node {
	var out []Node
	for c := n.FirstChild(); c != nil; c = c.Next() {
		out = append(out, e.block(c)...)
	}
	return out
}

// block encodes one block node. A suppressed paragraph yields its inline
// nodes, so the result may hold more than one node.
func (e *encoder) block(n doctree.Node) []Node {
	content := e.enter(n)
	var out []Node
	switch c := content.(type) {
	case *doctree.BlockQuote:
		out = []Node{&BlockQuote{Content: e.blocks(n)}}
	case *doctree.List:
		out = []Node{e.list(n, c)}
	case *doctree.Heading:
		out = []Node{&Heading{Level: c.Level, Content: e.textBlock(n)}}
	case *doctree.Paragraph:
		if inTightList(n) {
			out = e.textBlock(n)
		} else {
			out = []Node{&Paragraph{Content: e.textBlock(n)}}
		}
	case *doctree.CodeBlock:
		out = []Node{e.codeBlock(c)}
	case *doctree.HTMLBlock:
		text := c.Literal
		if e.opts.TagFilter {
			text = encoding.TagFilterBlock(text)
		}
		out = []Node{&HTMLBlock{Text: text}}
	case *doctree.ThematicBreak:
		out = []Node{&ThematicBreak{}}
	case *doctree.Table:
		out = []Node{e.table(n, c)}
	default:
		violatef("%s in block content", content.Kind())
	}
	e.leave()
	return out
}

// inTightList reports whether paragraph n sits in an item of a tight list.
func inTightList(n doctree.Node) bool {
	item := n.Parent()
	if item == nil {
		return false
	}
	list := item.Parent()
	if list == nil {
		return false
	}
	l, ok := list.Content().(*doctree.List)
	return ok && l.Tight
}

// textBlock encodes the inline children of n in the document frame.
func (e *encoder) textBlock(n doctree.Node) []Node {
	f := e.scopes.current()
	if f.kind != documentFrame || !f.empty() {
		violatef("text block inside inline content")
	}
	e.inlines(n)
	if e.scopes.current() != f {
		violatef("text frame left open")
	}
	return f.drain()
}

func (e *encoder) list(n doctree.Node, c *doctree.List) *List {
	l := &List{Ordered: c.Type == doctree.OrderedList, Start: c.Start}
	for child := n.FirstChild(); child != nil; child = child.Next() {
		if _, ok := e.enter(child).(*doctree.Item); !ok {
			violatef("%s in list, want item", doctree.KindOf(child))
		}
		l.Items = append(l.Items, &ListItem{Content: e.blocks(child)})
		e.leave()
	}
	return l
}

func (e *encoder) codeBlock(c *doctree.CodeBlock) *CodeBlock {
	cb := &CodeBlock{}
	if fields := strings.Fields(c.Info); len(fields) > 0 {
		cb.Language = encoding.EscapeText(fields[0])
	}
	body := encoding.EscapeText(c.Literal)
	if !e.opts.SplitCodeLines {
		cb.Lines = []*Raw{{Text: body}}
		return cb
	}
	body = strings.TrimSuffix(body, "\n")
	for _, line := range strings.Split(body, "\n") {
		cb.Lines = append(cb.Lines, &Raw{Text: line})
	}
	return cb
}

func (e *encoder) table(n doctree.Node, c *doctree.Table) *Table {
	t := &Table{Body: [][]*Cell{}}
	haveHeader := false
	for row := n.FirstChild(); row != nil; row = row.Next() {
		r, ok := e.enter(row).(*doctree.TableRow)
		if !ok {
			violatef("%s in table, want table_row", doctree.KindOf(row))
		}
		cells := e.row(row, c.Alignments)
		if r.Header && !haveHeader {
			t.Header = cells
			haveHeader = true
		} else {
			t.Body = append(t.Body, cells)
		}
		e.leave()
	}
	if t.Header == nil {
		t.Header = []*Cell{}
	}
	return t
}

func (e *encoder) row(n doctree.Node, aligns []doctree.Alignment) []*Cell {
	cells := []*Cell{}
	i := 0
	for cell := n.FirstChild(); cell != nil; cell = cell.Next() {
		if _, ok := e.enter(cell).(*doctree.TableCell); !ok {
			violatef("%s in table row, want table_cell", doctree.KindOf(cell))
		}
		out := &Cell{Align: alignmentCode(aligns, i)}

		frame := e.scopes.push(cellFrame)
		e.inlines(cell)
		out.Content = frame.drain()
		e.scopes.pop(frame)

		cells = append(cells, out)
		e.leave()
		i++
	}
	return cells
}

// alignmentCode looks up the column alignment of the cell at index i.
func alignmentCode(aligns []doctree.Alignment, i int) string {
	if i < 0 || i >= len(aligns) {
		return ""
	}
	switch aligns[i] {
	case doctree.AlignLeft:
		return "l"
	case doctree.AlignRight:
		return "r"
	case doctree.AlignCenter:
		return "c"
	}
	return ""
}
