// Package sexpr reads and writes document trees as S-expressions. It is
// the fixture language of the test suites and of the `--from sexpr` CLI
// input.
//
// Syntax:
//
//	; comment to end of line
//	(document
//	  (heading level=1 (text "Title"))
//	  (list type=ordered start=3 tight=true
//	    (item (paragraph (text "one"))))
//	  (code_block info="go" "fmt.Println()\n")
//	  (table align="left right"
//	    (table_row header=true (table_cell (text "a")) (table_cell))))
//
// Node names are the snake_case kind names of package doctree. Attributes
// come before children. Literal kinds (text, code, html_inline, html_block,
// code_block) take quoted strings, which are concatenated.
package sexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const formatName = "S-expression"

// nodeGrammar is one parenthesised node.
//
//nolint:govet // participle grammar tags are not standard struct tags
type nodeGrammar struct {
	Pos   lexer.Position
	Kind  string         `"(" @Ident`
	Attrs []*attrGrammar `@@*`
	Items []*itemGrammar `@@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attrGrammar struct {
	Pos   lexer.Position
	Key   string `@Ident "="`
	Value string `@(String | Int | Ident)`
}

//nolint:govet // participle grammar tags are not standard struct tags
type itemGrammar struct {
	Literal *string      `  @String`
	Node    *nodeGrammar `| @@`
}

var sexprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[()=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var sexprParser = participle.MustBuild[nodeGrammar](
	participle.Lexer(sexprLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace", "Comment"),
)

// Parse parses a single S-expression tree nested at most
// doctree.DefaultMaxDepth deep. The root may be of any kind; the encoder
// rejects roots that are not documents.
func Parse(src []byte) (*doctree.Element, error) {
	return ParseDepth(src, doctree.DefaultMaxDepth)
}

// ParseDepth is Parse with an explicit nesting limit. A limit of 0 or
// less means doctree.DefaultMaxDepth. Input nested deeper fails with a
// *errors.LimitError before the grammar runs.
func ParseDepth(src []byte, maxDepth int) (*doctree.Element, error) {
	if maxDepth <= 0 {
		maxDepth = doctree.DefaultMaxDepth
	}
	if err := checkDepth(src, maxDepth); err != nil {
		return nil, err
	}
	g, err := sexprParser.ParseBytes("", src)
	if err != nil {
		return nil, errors.NewParse(formatName, "", err.Error())
	}
	return build(g)
}

// checkDepth scans the unquoted parentheses of src. The grammar recurses
// once per node, so the depth has to be known before it runs.
func checkDepth(src []byte, maxDepth int) error {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
			if depth > maxDepth {
				return errors.NewLimit("nesting depth", maxDepth)
			}
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '"':
			for i++; i < len(src) && src[i] != '"'; i++ {
				if src[i] == '\\' {
					i++
				}
			}
		}
	}
	return nil
}

// ParseString is Parse for string input.
func ParseString(src string) (*doctree.Element, error) {
	return Parse([]byte(src))
}

// MustParse is like Parse but panics on error. It is meant for test
// fixtures.
func MustParse(src string) *doctree.Element {
	el, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return el
}

func isLiteral(k doctree.Kind) bool {
	switch k {
	case doctree.KindText, doctree.KindCode, doctree.KindCodeBlock,
		doctree.KindHTMLBlock, doctree.KindHTMLInline:
		return true
	}
	return false
}

func build(g *nodeGrammar) (*doctree.Element, error) {
	kind, ok := doctree.KindByName(g.Kind)
	if !ok {
		return nil, errors.NewUnsupported(formatName+" node", fmt.Sprintf("%s at %s", g.Kind, g.Pos))
	}

	attrs := make(map[string]*attrGrammar, len(g.Attrs))
	for _, a := range g.Attrs {
		if _, dup := attrs[a.Key]; dup {
			return nil, failf(a.Pos, "duplicate attribute %s on %s", a.Key, g.Kind)
		}
		attrs[a.Key] = a
	}

	var literal strings.Builder
	var children []*doctree.Element
	for _, it := range g.Items {
		if it.Literal != nil {
			if !isLiteral(kind) {
				return nil, failf(g.Pos, "%s does not take a literal", g.Kind)
			}
			literal.WriteString(*it.Literal)
			continue
		}
		if isLiteral(kind) {
			return nil, failf(it.Node.Pos, "%s cannot have children", g.Kind)
		}
		child, err := build(it.Node)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	content, err := contentFor(kind, g, attrs, literal.String())
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		for key, a := range attrs {
			return nil, failf(a.Pos, "unknown attribute %s on %s", key, g.Kind)
		}
	}
	return doctree.New(content, children...), nil
}

// contentFor consumes the attributes it understands from attrs. Whatever
// remains is reported as unknown by the caller.
func contentFor(kind doctree.Kind, g *nodeGrammar, attrs map[string]*attrGrammar, literal string) (doctree.Content, error) {
	switch kind {
	case doctree.KindDocument:
		return &doctree.Document{}, nil
	case doctree.KindBlockQuote:
		return &doctree.BlockQuote{}, nil
	case doctree.KindList:
		l := &doctree.List{Start: 1}
		if a := take(attrs, "type"); a != nil {
			switch a.Value {
			case "bullet":
			case "ordered":
				l.Type = doctree.OrderedList
			default:
				return nil, failf(a.Pos, "list type must be bullet or ordered, got %q", a.Value)
			}
		}
		var err error
		if l.Tight, err = boolAttr(take(attrs, "tight")); err != nil {
			return nil, err
		}
		if a := take(attrs, "start"); a != nil {
			if l.Start, err = intAttr(a); err != nil {
				return nil, err
			}
		}
		return l, nil
	case doctree.KindItem:
		return &doctree.Item{}, nil
	case doctree.KindHeading:
		a := take(attrs, "level")
		if a == nil {
			return nil, failf(g.Pos, "heading requires level")
		}
		level, err := intAttr(a)
		if err != nil {
			return nil, err
		}
		if level < 1 || level > 6 {
			return nil, failf(a.Pos, "heading level must be between 1 and 6, got %d", level)
		}
		return &doctree.Heading{Level: level}, nil
	case doctree.KindCodeBlock:
		return &doctree.CodeBlock{Info: strAttr(take(attrs, "info")), Literal: literal}, nil
	case doctree.KindHTMLBlock:
		return &doctree.HTMLBlock{Literal: literal}, nil
	case doctree.KindThematicBreak:
		return &doctree.ThematicBreak{}, nil
	case doctree.KindParagraph:
		return &doctree.Paragraph{}, nil
	case doctree.KindTable:
		t := &doctree.Table{}
		if a := take(attrs, "align"); a != nil {
			for _, f := range strings.Fields(a.Value) {
				al, ok := doctree.ParseAlignment(f)
				if !ok {
					return nil, failf(a.Pos, "unknown alignment %q", f)
				}
				t.Alignments = append(t.Alignments, al)
			}
		}
		return t, nil
	case doctree.KindTableRow:
		header, err := boolAttr(take(attrs, "header"))
		if err != nil {
			return nil, err
		}
		return &doctree.TableRow{Header: header}, nil
	case doctree.KindTableCell:
		return &doctree.TableCell{}, nil
	case doctree.KindText:
		return &doctree.Text{Literal: literal}, nil
	case doctree.KindLineBreak:
		return &doctree.LineBreak{}, nil
	case doctree.KindSoftBreak:
		return &doctree.SoftBreak{}, nil
	case doctree.KindCode:
		return &doctree.Code{Literal: literal}, nil
	case doctree.KindHTMLInline:
		return &doctree.HTMLInline{Literal: literal}, nil
	case doctree.KindStrong:
		return &doctree.Strong{}, nil
	case doctree.KindEmph:
		return &doctree.Emph{}, nil
	case doctree.KindStrikethrough:
		return &doctree.Strikethrough{}, nil
	case doctree.KindSuperscript:
		return &doctree.Superscript{}, nil
	case doctree.KindLink:
		return &doctree.Link{URL: strAttr(take(attrs, "url")), Title: strAttr(take(attrs, "title"))}, nil
	case doctree.KindImage:
		return &doctree.Image{URL: strAttr(take(attrs, "url")), Title: strAttr(take(attrs, "title"))}, nil
	}
	return nil, errors.NewUnsupported(formatName+" node", g.Kind)
}

func take(attrs map[string]*attrGrammar, key string) *attrGrammar {
	a := attrs[key]
	delete(attrs, key)
	return a
}

func strAttr(a *attrGrammar) string {
	if a == nil {
		return ""
	}
	return a.Value
}

func intAttr(a *attrGrammar) (int, error) {
	i, err := strconv.Atoi(a.Value)
	if err != nil {
		return 0, failf(a.Pos, "%s must be an integer, got %q", a.Key, a.Value)
	}
	return i, nil
}

func boolAttr(a *attrGrammar) (bool, error) {
	if a == nil {
		return false, nil
	}
	switch a.Value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, failf(a.Pos, "%s must be true or false, got %q", a.Key, a.Value)
}

func failf(pos lexer.Position, format string, args ...interface{}) error {
	return errors.NewParse(formatName, "", fmt.Sprintf("%d:%d: ", pos.Line, pos.Column)+fmt.Sprintf(format, args...))
}
