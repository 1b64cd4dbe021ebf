// Package snapshot holds the immutable element tree captured from the
// foreground application's UI.
//
// The tree is stored as an arena: every node lives in one slice and refers to
// its parent and children by index. Parent links are read-only lookups used
// for upward walks; they never own anything.
package snapshot

import "github.com/mediaveil/mediaveil/pkg/geometry"

// Screen describes the display the snapshot was captured on
type Screen struct {
	Width   float64 `json:"width" yaml:"width"`
	Height  float64 `json:"height" yaml:"height"`
	Density float64 `json:"density,omitempty" yaml:"density,omitempty"` // pixels per dp, 1 when unset
}

func (s Screen) Area() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width * s.Height
}

// Bounds returns the full-screen rectangle
func (s Screen) Bounds() geometry.Rect {
	return geometry.Rect{Right: s.Width, Bottom: s.Height}
}

// Dp converts density-independent units to pixels
func (s Screen) Dp(v float64) float64 {
	if s.Density <= 0 {
		return v
	}
	return v * s.Density
}

// Element is one captured UI node. It carries no identity across snapshots.
type Element struct {
	Bounds      geometry.Rect
	Text        string
	Description string
	ID          string // view identifier, e.g. "com.app:id/player_view"
	Type        string // semantic type tag or class name
	Visible     bool
	Selected    bool
	Checked     bool
	Activated   bool
	Focused     bool
	Scrollable  bool
}

type node struct {
	elem     Element
	parent   int
	children []int
}

// Snapshot is an immutable capture of the element tree. A nil *Snapshot is
// valid and behaves as an empty tree.
type Snapshot struct {
	screen Screen
	nodes  []node
}

// Empty returns a snapshot with no elements
func Empty(screen Screen) *Snapshot {
	return &Snapshot{screen: screen}
}

func (s *Snapshot) Screen() Screen {
	if s == nil {
		return Screen{}
	}
	return s.screen
}

// Len returns the number of elements in the tree
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// Root returns the root node, if the tree has one
func (s *Snapshot) Root() (Node, bool) {
	if s.Len() == 0 {
		return Node{}, false
	}
	return Node{s: s, idx: 0}, true
}

// Walk visits every node breadth-first starting at the root. Returning false
// from fn stops the walk.
func (s *Snapshot) Walk(fn func(Node) bool) {
	if s.Len() == 0 {
		return
	}
	queue := []int{0}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		if !fn(Node{s: s, idx: idx}) {
			return
		}
		queue = append(queue, s.nodes[idx].children...)
	}
}

// Node is a read-only handle to one element of a Snapshot
type Node struct {
	s   *Snapshot
	idx int
}

// Index is the node's position in its snapshot, unique within that snapshot only
func (n Node) Index() int {
	return n.idx
}

// Element returns a copy of the node's attributes
func (n Node) Element() Element {
	return n.s.nodes[n.idx].elem
}

func (n Node) Parent() (Node, bool) {
	p := n.s.nodes[n.idx].parent
	if p < 0 {
		return Node{}, false
	}
	return Node{s: n.s, idx: p}, true
}

func (n Node) Children() []Node {
	ids := n.s.nodes[n.idx].children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{s: n.s, idx: id}
	}
	return out
}

// Ancestors returns up to max ancestors, nearest first
func (n Node) Ancestors(max int) []Node {
	var out []Node
	cur := n
	for len(out) < max {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}
