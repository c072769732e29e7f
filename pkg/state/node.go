package state

import (
	"go.uber.org/zap"

	"github.com/stateful/blockstate/pkg/delta"
)

// Node is a block inside a Tree. The "children" list in its data is the
// single source of truth for the tree shape; index, depth, length and the
// parent and children references are derived from it and recomputed
// lazily when the node is dirty.
type Node struct {
	tree *Tree

	id      string
	data    Data
	version int
	deleted bool

	index    int
	depth    int
	length   int
	parent   *Node
	children []*Node
	dirty    bool

	// nodes memoizes TreeNodes.
	nodes []*Node
}

func newNode(tree *Tree, block *Block) *Node {
	data := block.Data.Clone()
	if data == nil {
		data = Data{}
	}
	if _, ok := data[keyChildren]; !ok {
		data[keyChildren] = []any{}
	}
	return &Node{
		tree:    tree,
		id:      block.ID,
		data:    data,
		version: block.Version,
		index:   -1,
		dirty:   true,
	}
}

func (n *Node) ID() string { return n.id }

// Data returns the live payload. Callers must not modify it.
func (n *Node) Data() Data { return n.data }

func (n *Node) Version() int { return n.version }

func (n *Node) Deleted() bool { return n.deleted }

func (n *Node) Dirty() bool { return n.dirty }

// Index is the position among the parent's children, or -1 for the root.
func (n *Node) Index() int {
	n.Refresh()
	return n.index
}

// Depth is the number of parent hops to the root.
func (n *Node) Depth() int {
	n.Refresh()
	return n.depth
}

// Length is the text length of the delta, zero for blocks without one.
func (n *Node) Length() int {
	n.Refresh()
	return n.length
}

func (n *Node) Parent() *Node {
	n.Refresh()
	return n.parent
}

func (n *Node) Children() []*Node {
	n.Refresh()
	return n.children
}

// MarkDirty flags the metadata of n, and only n, as stale.
func (n *Node) MarkDirty() {
	n.dirty = true
}

// Refresh recomputes the metadata of a dirty node. It re-stamps the index,
// parent reference and "parent" field of every child, creating placeholders
// for unknown child ids.
func (n *Node) Refresh() {
	if !n.dirty {
		return
	}
	n.dirty = false

	n.parent = n.tree.Block(n.data.Parent())

	ids := n.data.Children()
	children := make([]*Node, 0, len(ids))
	for i, id := range ids {
		child := n.tree.BlockOrCreate(id)
		if child.parent != n {
			markSubtreeDirty(child)
		}
		child.index = i
		child.parent = n
		child.data[keyParent] = n.id
		children = append(children, child)
	}
	n.children = children

	n.depth = n.tree.depthOf(n)

	n.length = 0
	if n.data.HasDelta() {
		d, err := delta.FromValue(n.data[keyDelta])
		if err != nil {
			n.tree.logger.Debug("ignoring malformed delta", zap.String("id", n.id), zap.Error(err))
		} else {
			n.length = delta.Length(d, n.tree.unit)
		}
	}
}

// markSubtreeDirty flags n and its descendants, whose depths follow the
// parent of n.
func markSubtreeDirty(n *Node) {
	for _, d := range n.TreeNodes() {
		d.dirty = true
	}
}

// TreeNodes returns n followed by all of its descendants in pre-order. The
// result is memoized until ClearTreeCache clears it.
func (n *Node) TreeNodes() []*Node {
	return n.treeNodes(make(map[string]bool))
}

func (n *Node) treeNodes(visiting map[string]bool) []*Node {
	if n.nodes != nil {
		return n.nodes
	}
	visiting[n.id] = true
	defer delete(visiting, n.id)

	nodes := []*Node{n}
	for _, id := range n.data.Children() {
		if visiting[id] {
			continue
		}
		nodes = append(nodes, n.tree.BlockOrCreate(id).treeNodes(visiting)...)
	}
	n.nodes = nodes
	return nodes
}

// ClearTreeCache drops the memoized subtree lists of n and its ancestors.
func ClearTreeCache(n *Node) {
	seen := make(map[*Node]bool)
	for current := n; current != nil && !seen[current]; current = current.parent {
		seen[current] = true
		current.nodes = nil
	}
}

// Remove soft-deletes n. It stays addressable by id.
func (n *Node) Remove() {
	n.deleted = true
	n.dirty = true
}

// Restore undoes Remove and recomputes the metadata.
func (n *Node) Restore() {
	n.deleted = false
	n.dirty = true
	n.Refresh()
}

// Prev returns the previous sibling, if any.
func (n *Node) Prev() *Node {
	return n.sibling(-1)
}

// Next returns the next sibling, if any.
func (n *Node) Next() *Node {
	return n.sibling(1)
}

func (n *Node) sibling(offset int) *Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	ids := parent.data.Children()
	i := n.Index() + offset
	if i < 0 || i >= len(ids) {
		return nil
	}
	return n.tree.Block(ids[i])
}

// AncestorAtDepth walks up from n while it is deeper than depth. It returns
// nil unless the walk lands exactly on depth.
func AncestorAtDepth(n *Node, depth int) *Node {
	if n == nil || depth < 0 {
		return nil
	}
	current := n
	for current != nil && current.Depth() > depth {
		current = current.Parent()
	}
	if current != nil && current.Depth() == depth {
		return current
	}
	return nil
}

// ToBlock returns the external record of n. Unless deep is set, nested
// values other than the children list are shared with the node; applies
// replace such values instead of modifying them.
func (n *Node) ToBlock(deep bool) *Block {
	data := n.data.shallowCopy()
	if deep {
		data = n.data.Clone()
	}
	return &Block{ID: n.id, Version: n.version, Data: data}
}
