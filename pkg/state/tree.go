package state

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/jsonop"
)

const transactionIDLength = 6

// Tree owns the blocks of one document, keyed by id. It is not safe for
// concurrent use; callers serialize Apply and reads.
type Tree struct {
	blocks map[string]*Node
	rootID string
	cache  Blocks
	// broken holds the failure of an aborted apply.
	broken error

	logger     *zap.Logger
	observer   Observer
	generateID ulid.Generator
	unit       delta.Unit
	applier    *jsonop.Applier
}

// New builds a tree from a snapshot containing exactly one root block.
func New(blocks Blocks, opts ...Option) (*Tree, error) {
	t := &Tree{
		blocks: make(map[string]*Node, len(blocks)),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.observer == nil {
		t.observer = ObserverFuncs{}
	}
	if t.generateID == nil {
		t.generateID = ulid.ShortID
	}
	t.applier = jsonop.NewApplier(jsonop.WithSubtype(jsonop.DeltaSubtype{Unit: t.unit}))

	var err error
	for _, id := range slices.Sorted(maps.Keys(blocks)) {
		block := blocks[id]
		switch {
		case block == nil:
			err = multierr.Append(err, errors.Wrapf(ErrNilBlock, "key %q", id))
			continue
		case block.ID != id:
			err = multierr.Append(err, errors.Wrapf(ErrIDMismatch, "key %q, id %q", id, block.ID))
			continue
		case block.Data.Type() == TypeRoot:
			if t.rootID != "" {
				err = multierr.Append(err, errors.Wrapf(ErrMultipleRoots, "%q and %q", t.rootID, id))
				continue
			}
			t.rootID = id
		}
		t.blocks[id] = newNode(t, block)
	}
	if t.rootID == "" {
		err = multierr.Append(err, ErrNoRoot)
	}
	if err != nil {
		return nil, err
	}

	// Parents stamp the "parent" field of their children, so reachable
	// nodes are refreshed top-down before depths are computed from it.
	for _, n := range t.Root().TreeNodes() {
		n.Refresh()
	}
	for _, n := range t.nodes() {
		n.Refresh()
	}

	return t, nil
}

func (t *Tree) nodes() []*Node {
	result := make([]*Node, 0, len(t.blocks))
	for _, id := range slices.Sorted(maps.Keys(t.blocks)) {
		result = append(result, t.blocks[id])
	}
	return result
}

func (t *Tree) RootID() string {
	return t.rootID
}

func (t *Tree) Root() *Node {
	return t.blocks[t.rootID]
}

// Len returns the number of nodes in the arena, tombstones included.
func (t *Tree) Len() int {
	return len(t.blocks)
}

// Block returns the node with id, including soft-deleted ones, or nil.
func (t *Tree) Block(id string) *Node {
	return t.blocks[id]
}

// BlockOrCreate returns the node with id, registering an empty text
// placeholder when it is unknown.
func (t *Tree) BlockOrCreate(id string) *Node {
	if n, ok := t.blocks[id]; ok {
		return n
	}
	n := newNode(t, &Block{ID: id, Version: 1, Data: placeholderData()})
	t.blocks[id] = n
	return n
}

func (t *Tree) insert(block *Block) *Node {
	n := newNode(t, block)
	t.blocks[block.ID] = n
	return n
}

// depthOf counts parent hops from n to the root following the "parent"
// ids of the payloads.
func (t *Tree) depthOf(n *Node) int {
	depth := 0
	current := n
	for depth < len(t.blocks) {
		parent := t.blocks[current.data.Parent()]
		if parent == nil {
			break
		}
		depth++
		current = parent
	}
	return depth
}

// Snapshot returns the records of all blocks reachable from the root that
// are not soft-deleted. The shallow snapshot is cached until the next
// apply; a deep one is always built fresh.
func (t *Tree) Snapshot(deep bool) Blocks {
	if !deep && t.cache != nil {
		return t.cache
	}

	result := make(Blocks)
	if root := t.Root(); root != nil {
		for _, n := range root.TreeNodes() {
			if n.deleted {
				continue
			}
			result[n.id] = n.ToBlock(deep)
		}
	}

	if !deep {
		t.cache = result
	}
	return result
}

// Result reports the ids touched by one apply.
type Result struct {
	ID      string `json:"id"`
	Inserts *IDSet `json:"inserts"`
	Updates *IDSet `json:"updates"`
	Deletes *IDSet `json:"deletes"`
}

// Apply normalizes changes and applies them. Operations on unknown blocks
// that do not create them are skipped. A failing operation aborts the apply
// and leaves the tree broken: every later Apply returns ErrTreeBroken.
func (t *Tree) Apply(changes []Change, opts ApplyOptions) (*Result, error) {
	if t.broken != nil {
		return nil, multierr.Combine(ErrTreeBroken, t.broken)
	}

	source := opts.Source
	if source == "" {
		source = SourceUser
	}

	previous := t.Snapshot(false)
	t.cache = nil
	batch := NormalizeChanges(changes)

	t.observer.ContentWillChange(WillChangeEvent{
		Source:  source,
		Current: previous,
		Changes: batch,
		Extra:   opts.Extra,
	})

	m := newMutation(t)
	if err := m.apply(batch); err != nil {
		t.broken = err
		return nil, err
	}

	result := &Result{
		ID:      t.generateID(transactionIDLength),
		Inserts: m.inserts,
		Updates: m.updates,
		Deletes: m.deletes,
	}
	current := t.Snapshot(false)

	t.logger.Debug(
		"content change",
		zap.String("id", result.ID),
		zap.String("source", string(source)),
		zap.Strings("inserts", result.Inserts.IDs()),
		zap.Strings("updates", result.Updates.IDs()),
		zap.Strings("deletes", result.Deletes.IDs()),
	)

	t.observer.ContentChanged(ChangeEvent{
		ID:       result.ID,
		Source:   source,
		Previous: previous,
		Current:  current,
		Changes:  batch,
		Inserts:  result.Inserts,
		Updates:  result.Updates,
		Deletes:  result.Deletes,
		Extra:    opts.Extra,
	})

	return result, nil
}
