package rtjson

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/encoding"
)

// violation is raised with panic when the input tree breaks a structural
// invariant. Encode recovers it and reports a StructureError.
type violation struct {
	msg string
}

func violatef(format string, args ...any) {
	panic(violation{msg: fmt.Sprintf(format, args...)})
}

type frameKind int

const (
	// documentFrame is the permanent bottom frame. Paragraphs and headings
	// collect their inline content in it.
	documentFrame frameKind = iota
	// linkFrame collects link anchor text as one flat run.
	linkFrame
	// cellFrame collects the inline content of a table cell.
	cellFrame
)

func (k frameKind) String() string {
	switch k {
	case linkFrame:
		return "link"
	case cellFrame:
		return "cell"
	}
	return "document"
}

// openMarker is a style that has been entered but not yet exited. The mask
// includes every style open below it in the same frame. split is set once
// the marker has been carried across a flush.
type openMarker struct {
	mask  StyleMask
	start int
	split bool
}

// textScope is one offset space. Offsets of spans and markers are relative
// to the start of buf.
//
// Document and cell frames are structured: besides the pending text run
// they hold the inline nodes already emitted. A link frame is flat and
// only ever yields one text and its spans.
type textScope struct {
	kind    frameKind
	buf     strings.Builder
	spans   []Span
	markers []openMarker
	nodes   []Node
}

// write escapes text and appends it to the frame.
func (f *textScope) write(text string) {
	f.buf.WriteString(encoding.EscapeText(text))
}

// writeRaw appends text that is already in its final form.
func (f *textScope) writeRaw(text string) {
	f.buf.WriteString(text)
}

func (f *textScope) openStyle(style StyleMask) {
	mask := style
	if n := len(f.markers); n > 0 {
		mask |= f.markers[n-1].mask
	}
	f.markers = append(f.markers, openMarker{mask: mask, start: f.buf.Len()})
}

func (f *textScope) closeStyle() {
	n := len(f.markers)
	if n == 0 {
		violatef("style closed without a matching open in %s frame", f.kind)
	}
	m := f.markers[n-1]
	f.markers = f.markers[:n-1]
	length := f.buf.Len() - m.start
	// A split style that ends right after the split covers nothing in
	// this run.
	if m.split && length == 0 {
		return
	}
	f.spans = append(f.spans, Span{Mask: m.mask, Start: m.start, Length: length})
}

// appendRun inserts an already encoded run, such as the anchor text of a
// nested link, shifting its spans to the insertion point.
func (f *textScope) appendRun(text string, spans []Span) {
	off := f.buf.Len()
	f.buf.WriteString(text)
	for _, s := range spans {
		s.Start += off
		f.spans = append(f.spans, s)
	}
}

// flush turns the pending run into a text node. Styles still open are cut
// at the end of the run and continue at offset 0 of the next one.
func (f *textScope) flush() {
	if f.kind == linkFrame {
		violatef("flush of a flat link frame")
	}
	for i := range f.markers {
		f.markers[i].split = true
	}
	end := f.buf.Len()
	if end == 0 && len(f.spans) == 0 {
		return
	}
	spans := f.spans
	for i := len(f.markers) - 1; i >= 0; i-- {
		m := f.markers[i]
		if end > m.start {
			spans = append(spans, Span{Mask: m.mask, Start: m.start, Length: end - m.start})
		}
		f.markers[i].start = 0
	}
	if spans == nil {
		spans = []Span{}
	}
	f.nodes = append(f.nodes, &Text{Text: f.buf.String(), Formatting: spans})
	f.buf.Reset()
	f.spans = nil
}

// emit appends a structural inline node after the pending run.
func (f *textScope) emit(n Node) {
	f.flush()
	f.nodes = append(f.nodes, n)
}

// drain returns the inline nodes of a structured frame and leaves the
// frame empty. A frame that produced nothing yields one empty text node.
func (f *textScope) drain() []Node {
	if len(f.markers) != 0 {
		violatef("%d style(s) left open in %s frame", len(f.markers), f.kind)
	}
	f.flush()
	nodes := f.nodes
	f.nodes = nil
	if len(nodes) == 0 {
		nodes = []Node{&Text{Text: "", Formatting: []Span{}}}
	}
	return nodes
}

// run returns the text and spans of a flat frame.
func (f *textScope) run() (string, []Span) {
	if len(f.markers) != 0 {
		violatef("%d style(s) left open in %s frame", len(f.markers), f.kind)
	}
	spans := f.spans
	if spans == nil {
		spans = []Span{}
	}
	return f.buf.String(), spans
}

func (f *textScope) empty() bool {
	return f.buf.Len() == 0 && len(f.spans) == 0 && len(f.markers) == 0 && len(f.nodes) == 0
}

// scopeStack is the stack of text frames. The bottom document frame is
// never popped.
type scopeStack struct {
	frames []*textScope
}

func newScopeStack() *scopeStack {
	return &scopeStack{frames: []*textScope{{kind: documentFrame}}}
}

func (s *scopeStack) current() *textScope {
	return s.frames[len(s.frames)-1]
}

func (s *scopeStack) depth() int {
	return len(s.frames)
}

func (s *scopeStack) push(kind frameKind) *textScope {
	f := &textScope{kind: kind}
	s.frames = append(s.frames, f)
	return f
}

// pop removes f, which must be the current frame.
func (s *scopeStack) pop(f *textScope) {
	n := len(s.frames)
	if n == 1 {
		violatef("pop of the document frame")
	}
	if s.frames[n-1] != f {
		violatef("pop of %s frame while %s frame is current", f.kind, s.frames[n-1].kind)
	}
	if len(f.markers) != 0 {
		violatef("style open across the end of a %s frame", f.kind)
	}
	s.frames = s.frames[:n-1]
}
