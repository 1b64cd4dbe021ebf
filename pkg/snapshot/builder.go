package snapshot

import "fmt"

// NodeID identifies a node while a tree is being built
type NodeID int

// NoParent is passed to Builder.Add to create the root
const NoParent NodeID = -1

// Builder assembles a Snapshot. It is not safe for concurrent use.
type Builder struct {
	screen Screen
	nodes  []node
}

func NewBuilder(screen Screen) *Builder {
	return &Builder{screen: screen}
}

// Add appends e under parent and returns its id. The first call must use
// NoParent; a second root or an unknown parent is a programming error.
func (b *Builder) Add(parent NodeID, e Element) NodeID {
	id := NodeID(len(b.nodes))
	if parent == NoParent {
		if len(b.nodes) != 0 {
			panic("snapshot: tree already has a root")
		}
		b.nodes = append(b.nodes, node{elem: e, parent: -1})
		return id
	}
	if parent < 0 || int(parent) >= len(b.nodes) {
		panic(fmt.Sprintf("snapshot: unknown parent %d", parent))
	}
	b.nodes = append(b.nodes, node{elem: e, parent: int(parent)})
	b.nodes[parent].children = append(b.nodes[parent].children, int(id))
	return id
}

// Build freezes the tree. The builder may keep being used; later additions
// do not affect snapshots already built.
func (b *Builder) Build() *Snapshot {
	nodes := make([]node, len(b.nodes))
	for i, n := range b.nodes {
		nodes[i] = node{
			elem:     n.elem,
			parent:   n.parent,
			children: append([]int(nil), n.children...),
		}
	}
	return &Snapshot{screen: b.screen, nodes: nodes}
}
