package state

import (
	"github.com/stateful/blockstate/pkg/jsonop"
)

const (
	newBlockIDLength   = 20
	retryBlockIDLength = 10
	maxIDRetries       = 100
)

// NewBlockChange returns a change creating a block with data under a fresh
// id. A colliding id is regenerated with a shorter one, up to a fixed
// number of attempts; the last candidate is returned regardless.
func (t *Tree) NewBlockChange(data Data) Change {
	id := t.generateID(newBlockIDLength)
	for i := 0; i < maxIDRetries && t.blocks[id] != nil; i++ {
		id = t.generateID(retryBlockIDLength)
	}
	return Change{
		ID:  id,
		Ops: []jsonop.Op{jsonop.ObjectInsert(jsonop.Path{}, map[string]any(data))},
	}
}

// InsertBlockChange returns a change inserting childID into the children
// of parentID at index.
func InsertBlockChange(parentID string, index int, childID string) Change {
	return Change{
		ID:  parentID,
		Ops: []jsonop.Op{jsonop.ListInsert(jsonop.Path{keyChildren, index}, childID)},
	}
}

// DeleteBlockChange returns a change deleting the child at index from the
// children of parentID. The expected value is read from the tree and is
// empty when there is no such child.
func (t *Tree) DeleteBlockChange(parentID string, index int) Change {
	var child any = ""
	if parent := t.Block(parentID); parent != nil {
		if ids := parent.data.Children(); index >= 0 && index < len(ids) {
			child = ids[index]
		}
	}
	return Change{
		ID:  parentID,
		Ops: []jsonop.Op{jsonop.ListDelete(jsonop.Path{keyChildren, index}, child)},
	}
}
