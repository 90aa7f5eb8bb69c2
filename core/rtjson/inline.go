package rtjson

import (
	"strings"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/encoding"
)

// inlines encodes the children of n into the current frame.
func (e *encoder) inlines(n doctree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		e.inline(c)
	}
}

func (e *encoder) inline(n doctree.Node) {
	content := e.enter(n)
	f := e.scopes.current()
	switch c := content.(type) {
	case *doctree.Text:
		f.write(c.Literal)
	case *doctree.SoftBreak:
		if e.opts.HardBreaks {
			e.lineBreak(f)
		} else {
			f.writeRaw("\n")
		}
	case *doctree.LineBreak:
		e.lineBreak(f)
	case *doctree.Code:
		f.openStyle(Code)
		f.write(c.Literal)
		f.closeStyle()
	case *doctree.HTMLInline:
		if e.opts.TagFilter && encoding.TagFilter(c.Literal) {
			f.writeRaw("&lt;" + c.Literal[1:])
		} else {
			f.writeRaw(c.Literal)
		}
	case *doctree.Strong:
		e.styled(n, f, Bold)
	case *doctree.Emph:
		e.styled(n, f, Italic)
	case *doctree.Strikethrough:
		e.styled(n, f, Strikethrough)
	case *doctree.Superscript:
		e.styled(n, f, Superscript)
	case *doctree.Link:
		e.link(n, c)
	case *doctree.Image:
		img := &Image{
			URL:   encoding.EscapeHref(c.URL),
			Alt:   e.plain(n),
			Title: encoding.EscapeText(c.Title),
		}
		if f.kind == linkFrame {
			f.writeRaw(img.Alt)
		} else {
			f.emit(img)
		}
	default:
		violatef("%s in inline content", content.Kind())
	}
	e.leave()
}

func (e *encoder) styled(n doctree.Node, f *textScope, style StyleMask) {
	f.openStyle(style)
	e.inlines(n)
	if e.scopes.current() != f {
		violatef("style closed in a different frame than it was opened")
	}
	f.closeStyle()
}

func (e *encoder) lineBreak(f *textScope) {
	if f.kind == linkFrame {
		f.writeRaw("\n")
		return
	}
	f.emit(&LineBreak{})
}

// link encodes the anchor text of n in a frame of its own.
func (e *encoder) link(n doctree.Node, c *doctree.Link) {
	frame := e.scopes.push(linkFrame)
	e.inlines(n)
	e.scopes.pop(frame)
	text, spans := frame.run()

	parent := e.scopes.current()
	if parent.kind == linkFrame {
		parent.appendRun(text, spans)
		return
	}
	parent.emit(&Link{
		URL:        encoding.EscapeHref(c.URL),
		Text:       text,
		Formatting: spans,
		Title:      encoding.EscapeText(c.Title),
	})
}

// plain renders the children of n as escaped text with no formatting.
// Breaks become newlines.
func (e *encoder) plain(n doctree.Node) string {
	var b strings.Builder
	e.plainInto(&b, n)
	return b.String()
}

func (e *encoder) plainInto(b *strings.Builder, n doctree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		content := e.enter(c)
		switch v := content.(type) {
		case *doctree.Text:
			b.WriteString(encoding.EscapeText(v.Literal))
		case *doctree.Code:
			b.WriteString(encoding.EscapeText(v.Literal))
		case *doctree.HTMLInline:
			b.WriteString(encoding.EscapeText(v.Literal))
		case *doctree.LineBreak, *doctree.SoftBreak:
			b.WriteByte('\n')
		case *doctree.Strong, *doctree.Emph, *doctree.Strikethrough,
			*doctree.Superscript, *doctree.Link, *doctree.Image:
			e.plainInto(b, c)
		default:
			violatef("%s in inline content", content.Kind())
		}
		e.leave()
	}
}
