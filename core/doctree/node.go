package doctree

import "fmt"

// Node is the read-only view of a tree node. Implementations return a nil
// interface, never a typed nil, when a neighbour does not exist.
type Node interface {
	// Content returns the kind-specific payload of the node.
	Content() Content

	// Parent returns the parent node, or nil for the root.
	Parent() Node

	// FirstChild returns the first child, or nil for a leaf.
	FirstChild() Node

	// Next returns the next sibling, or nil for the last child.
	Next() Node
}

// Element is the in-memory Node implementation. It is similar to an HTML
// DOM node: one type, differentiated by its Content.
type Element struct {
	parent     *Element
	prev       *Element
	next       *Element
	firstChild *Element
	lastChild  *Element
	content    Content
}

// New creates an element with the given content and appends children to
// it in order.
func New(c Content, children ...*Element) *Element {
	e := &Element{content: c}
	for _, child := range children {
		e.AppendChild(child)
	}
	return e
}

// Content returns the content of the element.
func (e *Element) Content() Content {
	return e.content
}

// Parent returns the parent of the element, or nil if it doesn't have one.
func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// FirstChild returns the first child, or nil if there are no children.
func (e *Element) FirstChild() Node {
	if e.firstChild == nil {
		return nil
	}
	return e.firstChild
}

// Next returns the next sibling, or nil if this is the last child.
func (e *Element) Next() Node {
	if e.next == nil {
		return nil
	}
	return e.next
}

// LastChild returns the last child element, or nil.
func (e *Element) LastChild() *Element {
	return e.lastChild
}

// AppendChild adds child as the last child of e. The child must not
// already have a parent.
func (e *Element) AppendChild(child *Element) {
	if child.parent != nil {
		panic(fmt.Sprintf("doctree: %s already has a parent", child.content.Kind()))
	}
	child.parent = e
	child.prev = e.lastChild
	child.next = nil
	if e.lastChild != nil {
		e.lastChild.next = child
	}
	e.lastChild = child
	if e.firstChild == nil {
		e.firstChild = child
	}
}

// Children returns the children of n in order.
func Children(n Node) []Node {
	var out []Node
	for c := n.FirstChild(); c != nil; c = c.Next() {
		out = append(out, c)
	}
	return out
}

// Index returns the position of n among its siblings.
func Index(n Node) int {
	p := n.Parent()
	if p == nil {
		return 0
	}
	i := 0
	for c := p.FirstChild(); c != nil; c = c.Next() {
		if c == n {
			return i
		}
		i++
	}
	return -1
}

// KindOf returns the kind of n's content, or -1 if n has none.
func KindOf(n Node) Kind {
	if n == nil || n.Content() == nil {
		return -1
	}
	return n.Content().Kind()
}
