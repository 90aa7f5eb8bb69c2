package cmarkxml

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
)

// describe renders a tree compactly for comparisons.
func describe(n doctree.Node) string {
	var b strings.Builder
	var walk func(n doctree.Node)
	walk = func(n doctree.Node) {
		b.WriteString("(")
		b.WriteString(n.Content().Kind().String())
		switch c := n.Content().(type) {
		case *doctree.Text:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.Code:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.HTMLInline:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.HTMLBlock:
			fmt.Fprintf(&b, " %q", c.Literal)
		case *doctree.CodeBlock:
			fmt.Fprintf(&b, " info=%q %q", c.Info, c.Literal)
		case *doctree.Heading:
			fmt.Fprintf(&b, " level=%d", c.Level)
		case *doctree.List:
			fmt.Fprintf(&b, " %s tight=%v start=%d", c.Type, c.Tight, c.Start)
		case *doctree.Link:
			fmt.Fprintf(&b, " %q %q", c.URL, c.Title)
		case *doctree.Image:
			fmt.Fprintf(&b, " %q %q", c.URL, c.Title)
		case *doctree.Table:
			fmt.Fprintf(&b, " %v", c.Alignments)
		case *doctree.TableRow:
			fmt.Fprintf(&b, " header=%v", c.Header)
		}
		for child := n.FirstChild(); child != nil; child = child.Next() {
			b.WriteString(" ")
			walk(child)
		}
		b.WriteString(")")
	}
	walk(n)
	return b.String()
}

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE document SYSTEM "CommonMark.dtd">
<document xmlns="http://commonmark.org/xml/1.0">
  <heading level="2">
    <text xml:space="preserve">Title &amp; more</text>
  </heading>
  <paragraph>
    <text xml:space="preserve">plain </text>
    <strong>
      <text xml:space="preserve">bold </text>
      <emph>
        <text xml:space="preserve">and italic</text>
      </emph>
    </strong>
    <softbreak />
    <link destination="http://x.org" title="X">
      <text xml:space="preserve">x</text>
    </link>
    <code xml:space="preserve">a &lt; b</code>
    <html_inline xml:space="preserve">&lt;br&gt;</html_inline>
    <linebreak />
    <image destination="i.png" title="">
      <text xml:space="preserve">alt</text>
    </image>
  </paragraph>
  <list type="ordered" start="3" delim="period" tight="true">
    <item>
      <paragraph>
        <text xml:space="preserve">one</text>
      </paragraph>
    </item>
  </list>
  <code_block info="go" xml:space="preserve">fmt.Println(1)
</code_block>
  <html_block xml:space="preserve">&lt;div&gt;</html_block>
  <thematic_break />
  <block_quote>
    <paragraph>
      <strikethrough>
        <text xml:space="preserve">gone</text>
      </strikethrough>
    </paragraph>
  </block_quote>
  <table>
    <table_header>
      <table_cell align="left">
        <text xml:space="preserve">a</text>
      </table_cell>
      <table_cell align="right">
        <text xml:space="preserve">b</text>
      </table_cell>
    </table_header>
    <table_row>
      <table_cell align="left">
        <text xml:space="preserve">1</text>
      </table_cell>
      <table_cell align="right" />
    </table_row>
  </table>
</document>
`

func TestParse(t *testing.T) {
	root, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := `(document` +
		` (heading level=2 (text "Title & more"))` +
		` (paragraph (text "plain ") (strong (text "bold ") (emph (text "and italic"))) (softbreak)` +
		` (link "http://x.org" "X" (text "x")) (code "a < b") (html_inline "<br>") (linebreak)` +
		` (image "i.png" "" (text "alt")))` +
		` (list ordered tight=true start=3 (item (paragraph (text "one"))))` +
		` (code_block info="go" "fmt.Println(1)\n")` +
		` (html_block "<div>")` +
		` (thematic_break)` +
		` (block_quote (paragraph (strikethrough (text "gone"))))` +
		` (table [left right] (table_row header=true (table_cell (text "a")) (table_cell (text "b")))` +
		` (table_row header=false (table_cell (text "1")) (table_cell))))`
	if got := describe(root); got != want {
		t.Errorf("tree mismatch\ngot  %s\nwant %s", got, want)
	}
}

func TestParsePrefixedNamespace(t *testing.T) {
	data := `<cm:document xmlns:cm="http://commonmark.org/xml/1.0"><cm:paragraph><cm:text>x</cm:text></cm:paragraph></cm:document>`
	root, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := describe(root); got != `(document (paragraph (text "x")))` {
		t.Errorf("tree = %s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	first, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, first); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	second, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse of written XML failed: %v\n%s", err, buf.String())
	}
	if describe(first) != describe(second) {
		t.Errorf("round trip mismatch\nfirst  %s\nsecond %s", describe(first), describe(second))
	}
}

func TestWriteFormat(t *testing.T) {
	root := doctree.New(&doctree.Document{},
		doctree.New(&doctree.Paragraph{},
			doctree.New(&doctree.Text{Literal: "a<b"}),
			doctree.New(&doctree.SoftBreak{}),
		),
	)
	data, err := Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	want := header +
		`<document xmlns="http://commonmark.org/xml/1.0">
  <paragraph>
    <text xml:space="preserve">a&lt;b</text>
    <softbreak />
  </paragraph>
</document>
`
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestWriteNilContent(t *testing.T) {
	_, err := Marshal(doctree.New(&doctree.Document{}, doctree.New(nil)))
	if !errors.Is(err, errors.ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		wantErr error
	}{
		{"unclosed tag", "<document><paragraph></document>", errors.ErrInvalidInput},
		{"no document", "<root/>", errors.ErrInvalidInput},
		{"unknown element", "<document><footnote/></document>", errors.ErrUnsupported},
		{"missing level", "<document><heading/></document>", errors.ErrInvalidInput},
		{"level out of range", `<document><heading level="7"/></document>`, errors.ErrInvalidInput},
		{"bad list type", `<document><list type="dashed"/></document>`, errors.ErrInvalidInput},
		{"bad tight", `<document><list tight="yes"/></document>`, errors.ErrInvalidInput},
		{"bad start", `<document><list type="ordered" start="x"/></document>`, errors.ErrInvalidInput},
		{"bad align", `<document><table><table_row><table_cell align="justify"/></table_row></table></document>`, errors.ErrInvalidInput},
		{"stray text", `<document>hello</document>`, errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v should wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDepth(t *testing.T) {
	nested := func(depth int) []byte {
		return []byte("<document><paragraph>" + strings.Repeat("<emph>", depth) +
			"<text>x</text>" + strings.Repeat("</emph>", depth) + "</paragraph></document>")
	}

	if _, err := ParseDepth(nested(7), 10); err != nil {
		t.Errorf("depth 10 should parse: %v", err)
	}
	_, err := ParseDepth(nested(8), 10)
	var le *errors.LimitError
	if !errors.As(err, &le) || le.Max != 10 {
		t.Errorf("depth 11 error = %v, want limit of 10", err)
	}
	if _, err := Parse(nested(100_000)); !errors.Is(err, errors.ErrLimit) {
		t.Errorf("deep document error = %v, want ErrLimit", err)
	}
}
