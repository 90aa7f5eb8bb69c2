package doctree

// DefaultMaxDepth is the nesting limit shared by the parsers and the
// encoder. The document node counts as depth 1.
const DefaultMaxDepth = 256

// WalkStatus tells Walk how to continue.
type WalkStatus int

const (
	// WalkContinue visits the children of the current node.
	WalkContinue WalkStatus = iota
	// WalkSkipChildren skips the children of the current node.
	WalkSkipChildren
	// WalkStop ends the walk.
	WalkStop
)

// WalkFunc is called twice for every node: once entering, before its
// children, and once leaving, after them. The status returned when leaving
// only matters if it is WalkStop.
type WalkFunc func(n Node, entering bool) WalkStatus

// Walk traverses the tree rooted at n depth first.
func Walk(n Node, fn WalkFunc) {
	walk(n, fn)
}

func walk(n Node, fn WalkFunc) WalkStatus {
	status := fn(n, true)
	if status == WalkStop {
		return WalkStop
	}
	if status != WalkSkipChildren {
		for c := n.FirstChild(); c != nil; c = c.Next() {
			if walk(c, fn) == WalkStop {
				return WalkStop
			}
		}
	}
	if fn(n, false) == WalkStop {
		return WalkStop
	}
	return WalkContinue
}

// Stats summarizes a tree.
type Stats struct {
	Nodes    int          `json:"nodes"`
	MaxDepth int          `json:"max_depth"`
	Kinds    map[Kind]int `json:"kinds"`
}

// Measure counts the nodes of the tree rooted at n.
func Measure(n Node) Stats {
	s := Stats{Kinds: make(map[Kind]int)}
	depth := 0
	Walk(n, func(n Node, entering bool) WalkStatus {
		if !entering {
			depth--
			return WalkContinue
		}
		depth++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		s.Nodes++
		s.Kinds[KindOf(n)]++
		return WalkContinue
	})
	return s
}
