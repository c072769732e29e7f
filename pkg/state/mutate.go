package state

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/pkg/jsonop"
)

// mutation applies one normalized batch to a tree and accumulates the
// inserted, updated and deleted ids across all targets.
type mutation struct {
	tree    *Tree
	inserts *IDSet
	updates *IDSet
	deletes *IDSet
}

func newMutation(t *Tree) *mutation {
	return &mutation{
		tree:    t,
		inserts: NewIDSet(),
		updates: NewIDSet(),
		deletes: NewIDSet(),
	}
}

func (m *mutation) apply(batch *Batch) error {
	for _, id := range batch.Targets() {
		ops := batch.Ops(id)

		n := m.tree.Block(id)
		if n == nil {
			if data, ok := creationPayload(ops); ok {
				n = m.tree.insert(&Block{ID: id, Version: 0, Data: data})
				n.Refresh()
				m.inserts.Add(id)
			}
		}
		if n == nil {
			m.tree.logger.Debug("skipping ops for unknown block", zap.String("id", id), zap.Int("ops", len(ops)))
			continue
		}

		result, err := n.apply(ops)
		if err != nil {
			return errors.WithMessagef(err, "failed to apply ops to block %q", id)
		}
		m.inserts.Union(result.inserts)
		m.deletes.Union(result.deletes)
		if result.positional {
			m.updates.Add(id)
		}
	}
	return nil
}

// creationPayload returns the data of the first whole-payload insert.
func creationPayload(ops []jsonop.Op) (Data, bool) {
	for _, op := range ops {
		if len(op.P) != 0 || !op.HasOI() {
			continue
		}
		switch data := op.OI.(type) {
		case map[string]any:
			return Data(data), true
		case Data:
			return data, true
		}
	}
	return nil, false
}

type nodeApplyResult struct {
	inserts    *IDSet
	deletes    *IDSet
	positional bool
}

// apply patches the payload with the positional ops and then mounts or
// unmounts the subtrees of children inserted into or deleted from the
// "children" list. Whole-payload ops are handled by the mutation.
func (n *Node) apply(ops []jsonop.Op) (*nodeApplyResult, error) {
	n.dirty = true
	n.version++

	positional := make([]jsonop.Op, 0, len(ops))
	for _, op := range ops {
		if len(op.P) > 0 {
			positional = append(positional, op)
		}
	}

	n.detach(positional)
	doc, err := n.tree.applier.Apply(map[string]any(n.data), positional)
	if err != nil {
		return nil, err
	}
	if data, ok := doc.(map[string]any); ok {
		n.data = Data(data)
	}

	result := &nodeApplyResult{
		inserts:    NewIDSet(),
		deletes:    NewIDSet(),
		positional: len(positional) > 0,
	}

	childrenChanged := false
	for _, op := range positional {
		if key, _ := op.P.Key(); key != keyChildren {
			continue
		}
		var inserted, deleted []string
		switch len(op.P) {
		case 1:
			inserted, deleted = wholeListChildren(op)
		case 2:
			if op.HasLI() {
				if id, ok := op.LI.(string); ok {
					inserted = append(inserted, id)
				}
			}
			if op.HasLD() {
				if id, ok := op.LD.(string); ok {
					deleted = append(deleted, id)
				}
			}
		}
		for _, id := range inserted {
			childrenChanged = true
			n.mountChild(id, result.inserts)
		}
		for _, id := range deleted {
			childrenChanged = true
			n.unmountChild(id, result.deletes)
		}
	}

	if childrenChanged {
		ClearTreeCache(n)
	}
	n.Refresh()

	return result, nil
}

// detach replaces every top-level value the ops reach into with a copy, so
// that snapshots sharing the previous values are not mutated in place.
func (n *Node) detach(ops []jsonop.Op) {
	copied := make(map[string]bool)
	for _, op := range ops {
		key, ok := op.P.Key()
		if !ok || copied[key] {
			continue
		}
		copied[key] = true
		if v, ok := n.data[key]; ok {
			n.data[key] = cloneValue(v)
		}
	}
}

func (n *Node) mountChild(id string, inserts *IDSet) {
	child := n.tree.BlockOrCreate(id)
	child.data[keyParent] = n.id
	child.dirty = true
	for _, d := range child.TreeNodes() {
		d.Restore()
		inserts.Add(d.id)
	}
}

func (n *Node) unmountChild(id string, deletes *IDSet) {
	child := n.tree.BlockOrCreate(id)
	for _, d := range child.TreeNodes() {
		d.Remove()
		deletes.Add(d.id)
	}
}

// wholeListChildren maps a replacement of the entire children list to
// inserted and deleted ids. Ids present in both lists are inserted again.
func wholeListChildren(op jsonop.Op) (inserted, deleted []string) {
	after := idList(op.OI)
	if op.HasOI() {
		inserted = after
	}
	if op.HasOD() {
		keep := make(map[string]bool, len(after))
		for _, id := range after {
			keep[id] = true
		}
		for _, id := range idList(op.OD) {
			if !keep[id] {
				deleted = append(deleted, id)
			}
		}
	}
	return inserted, deleted
}

func idList(v any) []string {
	return Data{keyChildren: v}.Children()
}
