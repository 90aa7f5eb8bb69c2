package ingest

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"README.md", FormatMarkdown, false},
		{"notes.MARKDOWN", FormatMarkdown, false},
		{"ast.xml", FormatXML, false},
		{"fixture.sexp", FormatSexpr, false},
		{"dir/case.tree", FormatSexpr, false},
		{"data.json", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrUnsupported) {
					t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupported", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"markdown": FormatMarkdown, "MD": FormatMarkdown, "xml": FormatXML,
		"cmark": FormatXML, " sexpr ": FormatSexpr, "sexp": FormatSexpr,
	} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
	if _, err := ParseFormat("rtf"); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("ParseFormat(rtf) error = %v", err)
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"xml declaration", `<?xml version="1.0"?><document/>`, FormatXML},
		{"namespace", `<document xmlns="http://commonmark.org/xml/1.0"/>`, FormatXML},
		{"html in markdown", "<div>\nhi\n</div>\n", FormatMarkdown},
		{"sexpr", "  (document)", FormatSexpr},
		{"sexpr comment", "; fixture\n(document)", FormatSexpr},
		{"markdown", "# Title", FormatMarkdown},
		{"empty", "", FormatMarkdown},
		{"bom", "\ufeff(document)", FormatSexpr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff([]byte(tt.data)); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

// TestConvertAgreement checks that the same document written in all three
// input formats encodes to the same output.
func TestConvertAgreement(t *testing.T) {
	inputs := map[Format]string{
		FormatMarkdown: "Hello **world**\n",
		FormatXML: `<?xml version="1.0" encoding="UTF-8"?>
<document xmlns="http://commonmark.org/xml/1.0">
  <paragraph>
    <text xml:space="preserve">Hello </text>
    <strong><text xml:space="preserve">world</text></strong>
  </paragraph>
</document>`,
		FormatSexpr: `(document (paragraph (text "Hello ") (strong (text "world"))))`,
	}
	want := `{"document":[{"e":"par","c":[{"e":"text","t":"Hello world","f":[[1,6,5]]}]}]}`

	for format, src := range inputs {
		t.Run(string(format), func(t *testing.T) {
			doc, err := Convert(format, []byte(src), rtjson.DefaultOptions(), 0)
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			data, err := rtjson.Marshal(doc)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != want {
				t.Errorf("got  %s\nwant %s", data, want)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := Convert(FormatMarkdown, []byte(strings.Repeat("a", 11)), rtjson.DefaultOptions(), 10); !errors.Is(err, errors.ErrLimit) {
		t.Errorf("oversized input error = %v, want ErrLimit", err)
	}
	if _, err := Convert(FormatSexpr, []byte("(document"), rtjson.DefaultOptions(), 0); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad sexpr error = %v, want ErrInvalidInput", err)
	}
	if _, err := Convert(FormatSexpr, []byte("(paragraph)"), rtjson.DefaultOptions(), 0); !errors.Is(err, errors.ErrMalformed) {
		t.Errorf("non-document root error = %v, want ErrMalformed", err)
	}
	if _, err := Parse("rtf", nil); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("unknown format error = %v, want ErrUnsupported", err)
	}
}

func TestConvertNestingLimit(t *testing.T) {
	deep := map[Format]string{
		FormatSexpr:    "(document (paragraph " + strings.Repeat("(emph ", 1_000_000) + `(text "x")` + strings.Repeat(")", 1_000_002),
		FormatMarkdown: strings.Repeat(">", 5_000_000) + " a\n",
	}
	for format, src := range deep {
		t.Run(string(format), func(t *testing.T) {
			_, err := Convert(format, []byte(src), rtjson.DefaultOptions(), 10<<20)
			var le *errors.LimitError
			if !errors.As(err, &le) || le.Limit != "nesting depth" {
				t.Fatalf("error = %v, want nesting depth limit", err)
			}
		})
	}

	t.Run("options limit applies before parsing", func(t *testing.T) {
		opts := rtjson.DefaultOptions()
		opts.MaxDepth = 4
		src := `(document (paragraph (emph (emph (text "x")))))`
		_, err := Convert(FormatSexpr, []byte(src), opts, 0)
		var le *errors.LimitError
		if !errors.As(err, &le) || le.Max != 4 {
			t.Errorf("error = %v, want limit of 4", err)
		}
	})
}
