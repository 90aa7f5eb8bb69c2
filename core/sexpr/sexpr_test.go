package sexpr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
)

const fixture = `; every kind once
(document
  (heading level=2 (text "Title") (softbreak) (emph (text "it")))
  (paragraph (strong (text "b ") (strikethrough (text "s"))) (superscript (text "2"))
    (code "x<y") (html_inline "<br>") (linebreak)
    (link url="http://x.org" title="X" (text "x"))
    (image url="i.png" (text "alt")))
  (list type=ordered start=3 tight=true
    (item (paragraph (text "one"))))
  (list (item (block_quote (paragraph (text "q")))))
  (code_block info="go" "fmt.Println(\"hi\")\n" "// more\n")
  (html_block "<div>")
  (thematic_break)
  (table align="left none right"
    (table_row header=true (table_cell (text "a")) (table_cell) (table_cell))
    (table_row (table_cell) (table_cell (text "b")) (table_cell))))
`

func TestParseFixture(t *testing.T) {
	root, err := ParseString(fixture)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	stats := doctree.Measure(root)
	if stats.Nodes != 43 {
		t.Errorf("Nodes = %d, want 43", stats.Nodes)
	}

	head := root.FirstChild().Content().(*doctree.Heading)
	if head.Level != 2 {
		t.Errorf("heading level = %d", head.Level)
	}

	var list *doctree.List
	var code *doctree.CodeBlock
	var table *doctree.Table
	var link *doctree.Link
	doctree.Walk(root, func(n doctree.Node, entering bool) doctree.WalkStatus {
		if !entering {
			return doctree.WalkContinue
		}
		switch c := n.Content().(type) {
		case *doctree.List:
			if list == nil {
				list = c
			}
		case *doctree.CodeBlock:
			code = c
		case *doctree.Table:
			table = c
		case *doctree.Link:
			link = c
		}
		return doctree.WalkContinue
	})

	if list.Type != doctree.OrderedList || list.Start != 3 || !list.Tight {
		t.Errorf("list = %+v", list)
	}
	if code.Info != "go" || code.Literal != "fmt.Println(\"hi\")\n// more\n" {
		t.Errorf("code block = %+v", code)
	}
	want := []doctree.Alignment{doctree.AlignLeft, doctree.AlignNone, doctree.AlignRight}
	if len(table.Alignments) != len(want) {
		t.Fatalf("alignments = %v", table.Alignments)
	}
	for i := range want {
		if table.Alignments[i] != want[i] {
			t.Errorf("alignment %d = %v, want %v", i, table.Alignments[i], want[i])
		}
	}
	if link.URL != "http://x.org" || link.Title != "X" {
		t.Errorf("link = %+v", link)
	}
}

func TestRoundTrip(t *testing.T) {
	first := MustParse(fixture)

	var buf bytes.Buffer
	if err := Print(&buf, first); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	second, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse of printed tree failed: %v\n%s", err, buf.String())
	}

	again, err := Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != string(again) {
		t.Errorf("print is not stable\nfirst:\n%s\nsecond:\n%s", buf.String(), again)
	}
}

func TestPrintLayout(t *testing.T) {
	root := doctree.New(&doctree.Document{},
		doctree.New(&doctree.Paragraph{},
			doctree.New(&doctree.Text{Literal: "a \"q\""}),
			doctree.New(&doctree.Strong{}, doctree.New(&doctree.Text{Literal: "b"})),
		),
		doctree.New(&doctree.List{Type: doctree.BulletList, Tight: true},
			doctree.New(&doctree.Item{}),
		),
	)
	data, err := Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	want := `(document
  (paragraph (text "a \"q\"") (strong (text "b")))
  (list tight=true
    (item)))
`
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestPrintNilContent(t *testing.T) {
	_, err := Marshal(doctree.New(&doctree.Document{}, doctree.New(nil)))
	if !errors.Is(err, errors.ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		wantMsg string
	}{
		{"unbalanced", `(document (paragraph)`, errors.ErrInvalidInput, ""},
		{"unknown kind", `(document (footnote))`, errors.ErrUnsupported, "footnote"},
		{"literal on container", `(paragraph "x")`, errors.ErrInvalidInput, "does not take a literal"},
		{"child of literal", `(text (emph))`, errors.ErrInvalidInput, "cannot have children"},
		{"missing level", `(heading)`, errors.ErrInvalidInput, "requires level"},
		{"level range", `(heading level=0)`, errors.ErrInvalidInput, "between 1 and 6"},
		{"level not int", `(heading level=one)`, errors.ErrInvalidInput, "integer"},
		{"bad list type", `(list type=dashed)`, errors.ErrInvalidInput, "bullet or ordered"},
		{"bad bool", `(list tight=yes)`, errors.ErrInvalidInput, "true or false"},
		{"bad alignment", `(table align="left justify")`, errors.ErrInvalidInput, "justify"},
		{"unknown attribute", `(paragraph color=red)`, errors.ErrInvalidInput, "unknown attribute color"},
		{"duplicate attribute", `(heading level=1 level=2)`, errors.ErrInvalidInput, "duplicate attribute level"},
		{"attribute after child", `(list (item) tight=true)`, errors.ErrInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.src)
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v should wrap %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestComments(t *testing.T) {
	root, err := ParseString("; leading\n(document ; trailing\n  (paragraph (text \"a;b\")) ; after\n)\n")
	if err != nil {
		t.Fatal(err)
	}
	txt := root.FirstChild().FirstChild().Content().(*doctree.Text)
	if txt.Literal != "a;b" {
		t.Errorf("text = %q, want %q", txt.Literal, "a;b")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on bad input")
		}
	}()
	MustParse("(")
}

func nested(depth int) string {
	return "(document (paragraph " + strings.Repeat("(emph ", depth) + `(text "x")` +
		strings.Repeat(")", depth) + "))"
}

func TestNestingDepth(t *testing.T) {
	t.Run("deep input fails before parsing", func(t *testing.T) {
		_, err := ParseString(nested(1_000_000))
		var le *errors.LimitError
		if !errors.As(err, &le) || le.Max != doctree.DefaultMaxDepth {
			t.Fatalf("error = %v, want nesting LimitError", err)
		}
		if !errors.Is(err, errors.ErrLimit) {
			t.Errorf("error %v should wrap ErrLimit", err)
		}
	})

	t.Run("at the limit", func(t *testing.T) {
		// document, paragraph and text take three levels.
		if _, err := ParseDepth([]byte(nested(7)), 10); err != nil {
			t.Errorf("depth 10 should parse: %v", err)
		}
		if _, err := ParseDepth([]byte(nested(8)), 10); !errors.Is(err, errors.ErrLimit) {
			t.Errorf("depth 11 error = %v, want limit", err)
		}
	})

	t.Run("parentheses in strings and comments", func(t *testing.T) {
		src := "; (((((\n(document (paragraph (text \"((((\\\"((((\")))"
		root, err := ParseDepth([]byte(src), 3)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		txt := root.FirstChild().FirstChild().Content().(*doctree.Text)
		if txt.Literal != `(((("((((` {
			t.Errorf("literal = %q", txt.Literal)
		}
	})

	t.Run("zero uses default", func(t *testing.T) {
		if _, err := ParseDepth([]byte(nested(doctree.DefaultMaxDepth)), 0); !errors.Is(err, errors.ErrLimit) {
			t.Errorf("error = %v, want limit", err)
		}
		if _, err := ParseDepth([]byte(nested(doctree.DefaultMaxDepth-3)), 0); err != nil {
			t.Errorf("error = %v", err)
		}
	})
}
