package doctree

import "testing"

func sample() *Element {
	return New(&Document{},
		New(&Heading{Level: 1}, New(&Text{Literal: "Title"})),
		New(&Paragraph{},
			New(&Text{Literal: "a "}),
			New(&Strong{}, New(&Text{Literal: "b"})),
		),
		New(&ThematicBreak{}),
	)
}

func TestElementNavigation(t *testing.T) {
	doc := sample()

	if doc.Parent() != nil {
		t.Fatal("root Parent() should be a nil interface")
	}
	first := doc.FirstChild()
	if KindOf(first) != KindHeading {
		t.Fatalf("first child kind = %v, want heading", KindOf(first))
	}
	if first.Parent() != Node(doc) {
		t.Error("child Parent() should be the document")
	}
	para := first.Next()
	if KindOf(para) != KindParagraph {
		t.Fatalf("second child kind = %v, want paragraph", KindOf(para))
	}
	last := para.Next()
	if last.Next() != nil {
		t.Error("last child Next() should be a nil interface")
	}
	if last.FirstChild() != nil {
		t.Error("leaf FirstChild() should be a nil interface")
	}
	if got := len(Children(para)); got != 2 {
		t.Errorf("len(Children(paragraph)) = %d, want 2", got)
	}
	if got := Index(last); got != 2 {
		t.Errorf("Index(thematic break) = %d, want 2", got)
	}
	if got := Index(doc); got != 0 {
		t.Errorf("Index(root) = %d, want 0", got)
	}
}

func TestAppendChildTwicePanics(t *testing.T) {
	child := New(&Text{Literal: "x"})
	New(&Paragraph{}, child)

	defer func() {
		if recover() == nil {
			t.Error("AppendChild of a parented element should panic")
		}
	}()
	New(&Paragraph{}, child)
}

func TestKindNames(t *testing.T) {
	for k := KindDocument; k <= KindImage; k++ {
		name := k.String()
		if name == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
		got, ok := KindByName(name)
		if !ok || got != k {
			t.Errorf("KindByName(%q) = %v, %v; want %v", name, got, ok, k)
		}
	}
	if Kind(99).String() != "unknown" {
		t.Error("out of range kind should be unknown")
	}
	if _, ok := KindByName("footnote"); ok {
		t.Error("KindByName(footnote) should fail")
	}
}

func TestIsInline(t *testing.T) {
	inline := map[Kind]bool{
		KindText: true, KindLineBreak: true, KindSoftBreak: true, KindCode: true,
		KindHTMLInline: true, KindStrong: true, KindEmph: true, KindStrikethrough: true,
		KindSuperscript: true, KindLink: true, KindImage: true,
	}
	for k := KindDocument; k <= KindImage; k++ {
		if k.IsInline() != inline[k] {
			t.Errorf("%v.IsInline() = %v, want %v", k, k.IsInline(), inline[k])
		}
	}
}

func TestParseAlignment(t *testing.T) {
	for _, a := range []Alignment{AlignNone, AlignLeft, AlignCenter, AlignRight} {
		got, ok := ParseAlignment(a.String())
		if !ok || got != a {
			t.Errorf("ParseAlignment(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if _, ok := ParseAlignment("justify"); ok {
		t.Error("ParseAlignment(justify) should fail")
	}
}

func TestWalkOrder(t *testing.T) {
	var events []string
	Walk(sample(), func(n Node, entering bool) WalkStatus {
		prefix := "-"
		if entering {
			prefix = "+"
		}
		events = append(events, prefix+KindOf(n).String())
		return WalkContinue
	})

	want := []string{
		"+document",
		"+heading", "+text", "-text", "-heading",
		"+paragraph", "+text", "-text", "+strong", "+text", "-text", "-strong", "-paragraph",
		"+thematic_break", "-thematic_break",
		"-document",
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	var entered int
	Walk(sample(), func(n Node, entering bool) WalkStatus {
		if !entering {
			return WalkContinue
		}
		entered++
		if KindOf(n) == KindParagraph {
			return WalkSkipChildren
		}
		return WalkContinue
	})
	if entered != 5 {
		t.Errorf("entered %d nodes with paragraph skipped, want 5", entered)
	}

	entered = 0
	Walk(sample(), func(n Node, entering bool) WalkStatus {
		if entering {
			entered++
		}
		if KindOf(n) == KindStrong {
			return WalkStop
		}
		return WalkContinue
	})
	if entered != 6 {
		t.Errorf("entered %d nodes before stop, want 6", entered)
	}
}

func TestMeasure(t *testing.T) {
	s := Measure(sample())
	if s.Nodes != 8 {
		t.Errorf("Nodes = %d, want 8", s.Nodes)
	}
	if s.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", s.MaxDepth)
	}
	if s.Kinds[KindText] != 3 {
		t.Errorf("Kinds[text] = %d, want 3", s.Kinds[KindText])
	}
}
