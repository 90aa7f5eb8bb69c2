package rtjson

import (
	"github.com/FocuswithJustin/rtjson/core/doctree"
	"github.com/FocuswithJustin/rtjson/core/errors"
)

// DefaultMaxDepth bounds tree nesting when Options.MaxDepth is not set.
const DefaultMaxDepth = doctree.DefaultMaxDepth

// Options controls encoding.
type Options struct {
	// TagFilter neutralizes dangerous raw HTML tags.
	TagFilter bool
	// HardBreaks turns soft breaks into line breaks.
	HardBreaks bool
	// SplitCodeLines emits one raw unit per code block line.
	SplitCodeLines bool
	// MaxDepth is the deepest tree nesting accepted. Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SplitCodeLines: true,
		MaxDepth:       DefaultMaxDepth,
	}
}

type depthExceeded struct{}

// encoder holds the state of one conversion. It is discarded afterwards.
type encoder struct {
	opts   Options
	scopes *scopeStack
	path   []doctree.Kind
}

// Encode converts the tree rooted at root, which must be a Document, into
// an encoded document. A tree that breaks a structural invariant yields a
// *errors.StructureError and no document.
func Encode(root doctree.Node, opts Options) (doc *Document, err error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if root == nil {
		return nil, errors.NewStructure("", "nil root")
	}

	e := &encoder{opts: opts, scopes: newScopeStack()}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch v := r.(type) {
		case violation:
			doc, err = nil, errors.NewStructure(e.at(), v.msg)
		case depthExceeded:
			doc, err = nil, errors.NewLimit("nesting depth", opts.MaxDepth)
		default:
			panic(r)
		}
	}()

	return e.document(root), nil
}

// EncodeJSON encodes the tree and returns its JSON form.
func EncodeJSON(root doctree.Node, opts Options) ([]byte, error) {
	doc, err := Encode(root, opts)
	if err != nil {
		return nil, err
	}
	return Marshal(doc)
}

// enter records n on the visit path and returns its content.
func (e *encoder) enter(n doctree.Node) doctree.Content {
	c := n.Content()
	if c == nil {
		violatef("node without content")
	}
	e.path = append(e.path, c.Kind())
	if len(e.path) > e.opts.MaxDepth {
		panic(depthExceeded{})
	}
	return c
}

func (e *encoder) leave() {
	e.path = e.path[:len(e.path)-1]
}

// at names the node being visited.
func (e *encoder) at() string {
	if len(e.path) == 0 {
		return ""
	}
	return e.path[len(e.path)-1].String()
}

func (e *encoder) document(root doctree.Node) *Document {
	c := e.enter(root)
	if _, ok := c.(*doctree.Document); !ok {
		violatef("root is %s, want document", c.Kind())
	}
	doc := &Document{Content: e.blocks(root)}
	e.leave()

	if e.scopes.depth() != 1 || !e.scopes.current().empty() {
		violatef("text frames left open at end of document")
	}
	return doc
}
