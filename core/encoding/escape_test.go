package encoding

import (
	"strings"
	"testing"
)

func TestEscapeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"less than", "a < b", "a &lt; b"},
		{"greater than", "a > b", "a &gt; b"},
		{"quotes", `He said "hello"`, "He said &quot;hello&quot;"},
		{"apostrophe", "it's", "it&#x27;s"},
		{"all five", `<a href="x">'&'</a>`, "&lt;a href=&quot;x&quot;&gt;&#x27;&amp;&#x27;&lt;/a&gt;"},
		{"unicode", "日本語 & émoji 🎉", "日本語 &amp; émoji 🎉"},
		{"already escaped", "&amp;", "&amp;amp;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeText(tt.input); got != tt.want {
				t.Errorf("EscapeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeTextNoopOnSafeInput(t *testing.T) {
	inputs := []string{
		"",
		"plain words and numbers 123",
		"tabs\tand\nnewlines",
		"punctuation: ; , . ! ? ( ) [ ] { } * _ ~ ` # % $ @ = + - /",
		"ünïcödé ✓",
	}
	for _, in := range inputs {
		if got := EscapeText(in); got != in {
			t.Errorf("EscapeText(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestEscapeHref(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"unreserved", "abc123-_.~", "abc123-_.~"},
		{"space", "a b", "a%20b"},
		{"full url", "https://example.com/path?q=1;x=2#frag", "https://example.com/path?q=1;x=2#frag"},
		{"ampersand escaped", "/a?x=1&y=2", "/a?x=1&amp;y=2"},
		{"apostrophe escaped", "/it's", "/it&#x27;s"},
		{"percent kept", "/a%20b", "/a%20b"},
		{"quote encoded", `/"x"`, "/%22x%22"},
		{"angle brackets", "/<x>", "/%3Cx%3E"},
		{"utf8 bytes", "/é", "/%C3%A9"},
		{"control byte", "/\x01", "/%01"},
		{"sub-delims", "!*'(),$", "!*&#x27;(),$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeHref(tt.input); got != tt.want {
				t.Errorf("EscapeHref(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagFilter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<script>", true},
		{"<SCRIPT/>", true},
		{"</script>", true},
		{"<Style type=x>", true},
		{"<iframe\n src=x>", true},
		{"<plaintext>", true},
		{"<noembed>", true},
		{"<noframes>", true},
		{"<textarea>", true},
		{"<title>", true},
		{"<xmp>", true},
		{"<scriptx>", false},
		{"<script", false},
		{"<script/", false},
		{"<scri", false},
		{"<div>", false},
		{"<b>", false},
		{"script>", false},
		{"<", false},
		{"", false},
		{"< script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TagFilter(tt.input); got != tt.want {
				t.Errorf("TagFilter(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagFilterBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no tags", "just text", "just text"},
		{"script pair", "<script>x</script>", "&lt;script>x&lt;/script>"},
		{"safe tags kept", "<div><p>hi</p></div>", "<div><p>hi</p></div>"},
		{"mixed", "<div><style>a{}</style></div>", "<div>&lt;style>a{}&lt;/style></div>"},
		{"trailing angle", "a <", "a <"},
		{"case insensitive", "<IFRAME src=x></IFRAME>", "&lt;IFRAME src=x>&lt;/IFRAME>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagFilterBlock(tt.input); got != tt.want {
				t.Errorf("TagFilterBlock(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagFilterBlockLarge(t *testing.T) {
	input := strings.Repeat("<b><script>", 20000)
	got := TagFilterBlock(input)
	if want := strings.Repeat("<b>&lt;script>", 20000); got != want {
		t.Errorf("TagFilterBlock on large input produced %d bytes, want %d", len(got), len(want))
	}
}

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"quotes preserved", `He said "hello"`, `He said "hello"`},
		{"all three", "<script>&</script>", "&lt;script&gt;&amp;&lt;/script&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeXMLText(tt.input); got != tt.want {
				t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	input := `<tag attr="val&ue">`
	want := "&lt;tag attr=&quot;val&amp;ue&quot;&gt;"
	if got := EscapeXMLAttr(input); got != want {
		t.Errorf("EscapeXMLAttr(%q) = %q, want %q", input, got, want)
	}
}

func BenchmarkEscapeText(b *testing.B) {
	s := strings.Repeat("plain text with a <tag> & some 'quotes' ", 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EscapeText(s)
	}
}
