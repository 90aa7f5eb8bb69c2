package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
)

// describe renders a tree compactly, concatenating adjacent text nodes so
// that results do not depend on where goldmark splits text segments.
func describe(n doctree.Node) string {
	var b strings.Builder
	var walk func(n doctree.Node)
	walk = func(n doctree.Node) {
		b.WriteString("(")
		b.WriteString(n.Content().Kind().String())
		switch c := n.Content().(type) {
		case *doctree.Code:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.HTMLInline:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.HTMLBlock:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.CodeBlock:
			fmt.Fprintf(&b, " info=%q %q", c.Info, c.Literal)
		case *doctree.Heading:
			fmt.Fprintf(&b, " %d", c.Level)
		case *doctree.List:
			fmt.Fprintf(&b, " %s tight=%v start=%d", c.Type, c.Tight, c.Start)
		case *doctree.Link:
			fmt.Fprintf(&b, " %q %q", c.URL, c.Title)
		case *doctree.Image:
			fmt.Fprintf(&b, " %q", c.URL)
		case *doctree.Table:
			fmt.Fprintf(&b, " %v", c.Alignments)
		case *doctree.TableRow:
			if c.Header {
				b.WriteString(" header")
			}
		}
		var text strings.Builder
		inText := false
		for child := n.FirstChild(); child != nil; child = child.Next() {
			if t, ok := child.Content().(*doctree.Text); ok {
				text.WriteString(t.Literal)
				inText = true
				continue
			}
			if inText {
				fmt.Fprintf(&b, " %q", text.String())
				text.Reset()
				inText = false
			}
			b.WriteString(" ")
			walk(child)
		}
		if inText {
			fmt.Fprintf(&b, " %q", text.String())
		}
		b.WriteString(")")
	}
	walk(n)
	return b.String()
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "heading",
			src:  "## Title *it*\n",
			want: `(document (heading 2 "Title " (emph "it")))`,
		},
		{
			name: "nested emphasis",
			src:  "plain **bold *and italic*** text\n",
			want: `(document (paragraph "plain " (strong "bold " (emph "and italic")) " text"))`,
		},
		{
			name: "soft break",
			src:  "a\nb\n",
			want: `(document (paragraph "a" (softbreak) "b"))`,
		},
		{
			name: "hard break",
			src:  "a\\\nb\n",
			want: `(document (paragraph "a" (linebreak) "b"))`,
		},
		{
			name: "entities and escapes",
			src:  "a &amp; b \\* &#65;\n",
			want: `(document (paragraph "a & b * A"))`,
		},
		{
			name: "code span",
			src:  "use `a < b` here\n",
			want: `(document (paragraph "use " (code "a < b") " here"))`,
		},
		{
			name: "link with title",
			src:  "[x](http://x.org \"X &amp; Y\")\n",
			want: `(document (paragraph (link "http://x.org" "X & Y" "x")))`,
		},
		{
			name: "image",
			src:  "![alt *text*](i.png)\n",
			want: `(document (paragraph (image "i.png" "alt " (emph "text"))))`,
		},
		{
			name: "autolink",
			src:  "<https://example.com>\n",
			want: `(document (paragraph (link "https://example.com" "" "https://example.com")))`,
		},
		{
			name: "email autolink",
			src:  "<me@example.com>\n",
			want: `(document (paragraph (link "mailto:me@example.com" "" "me@example.com")))`,
		},
		{
			name: "raw html",
			src:  "a <br/> b\n",
			want: `(document (paragraph "a " (html_inline "<br/>") " b"))`,
		},
		{
			name: "html block",
			src:  "<div>\nhi\n</div>\n",
			want: `(document (html_block "<div>\nhi\n</div>\n"))`,
		},
		{
			name: "fenced code",
			src:  "```go extra\nfmt.Println()\n```\n",
			want: `(document (code_block info="go extra" "fmt.Println()\n"))`,
		},
		{
			name: "indented code",
			src:  "    x := 1\n",
			want: `(document (code_block info="" "x := 1\n"))`,
		},
		{
			name: "thematic break and quote",
			src:  "---\n\n> q\n",
			want: `(document (thematic_break) (block_quote (paragraph "q")))`,
		},
		{
			name: "tight bullet list",
			src:  "- a\n- b\n",
			want: `(document (list bullet tight=true start=1 (item (paragraph "a")) (item (paragraph "b"))))`,
		},
		{
			name: "loose ordered list",
			src:  "3. a\n\n4. b\n",
			want: `(document (list ordered tight=false start=3 (item (paragraph "a")) (item (paragraph "b"))))`,
		},
		{
			name: "strikethrough",
			src:  "~~gone~~\n",
			want: `(document (paragraph (strikethrough "gone")))`,
		},
		{
			name: "task list checkbox dropped",
			src:  "- [x] done\n",
			want: `(document (list bullet tight=true start=1 (item (paragraph " done"))))`,
		},
		{
			name: "table",
			src:  "| a | b |\n|:--|--:|\n| 1 | 2 |\n",
			want: `(document (table [left right] (table_row header (table_cell "a") (table_cell "b")) (table_row (table_cell "1") (table_cell "2"))))`,
		},
		{
			name: "empty",
			src:  "",
			want: `(document)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.src, err)
			}
			if got := describe(root); got != tt.want {
				t.Errorf("Parse(%q)\ngot  %s\nwant %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestCommonMarkParser(t *testing.T) {
	p := NewParser(false)
	root, err := p.Parse([]byte("~~x~~ https://example.com\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := `(document (paragraph "~~x~~ https://example.com"))`
	if got := describe(root); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestLinkify(t *testing.T) {
	root, err := Parse([]byte("see https://example.com now\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := `(document (paragraph "see " (link "https://example.com" "" "https://example.com") " now"))`
	if got := describe(root); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

// TestEncodeMarkdown runs parsed Markdown through the encoder and checks
// the rich-text output end to end.
func TestEncodeMarkdown(t *testing.T) {
	root, err := Parse([]byte("plain **bold *and italic*** text\n"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := rtjson.EncodeJSON(root, rtjson.DefaultOptions())
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	want := `{"document":[{"e":"par","c":[{"e":"text","t":"plain bold and italic text","f":[[3,11,10],[1,6,15]]}]}]}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestLeadingMarkers(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"plain text", 0},
		{"> quote", 1},
		{">>> a", 3},
		{"> > - 1. b", 4},
		{"   > a", 1},
		{"    > code", 0},
		{">     > code in quote", 1},
		{"- - x", 2},
		{"-x", 0},
		{"- - -", 0},
		{"> * * *", 1},
		{"- * - *", 4},
		{"12) a", 1},
		{"1234567890. a", 0},
		{"+\ta", 1},
		{"-", 1},
	}
	for _, tt := range tests {
		if got := leadingMarkers([]byte(tt.line), 100); got != tt.want {
			t.Errorf("leadingMarkers(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestNestingLimit(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"deep quotes", strings.Repeat(">", 9_000_000) + " a", true},
		{"deep lists", strings.Repeat("- ", 1_000_000) + "a", true},
		{"deep on a later line", "intro\n\n" + strings.Repeat("> ", 300) + "a", true},
		{"under the limit", strings.Repeat(">", 100) + " a", false},
		{"long thematic break", strings.Repeat("- ", 1000), false},
		{"indented code", "    " + strings.Repeat(">", 1000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if tt.wantErr {
				var le *errors.LimitError
				if !errors.As(err, &le) || le.Max != doctree.DefaultMaxDepth {
					t.Fatalf("error = %v, want nesting LimitError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
		})
	}

	t.Run("explicit limit", func(t *testing.T) {
		src := []byte(strings.Repeat(">", 10) + " a")
		if _, err := ParseDepth(src, 10); !errors.Is(err, errors.ErrLimit) {
			t.Errorf("error = %v, want limit", err)
		}
		if _, err := ParseDepth(src, 11); err != nil {
			t.Errorf("error = %v", err)
		}
	})
}
