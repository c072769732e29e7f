// Package editor ties a document tree to the parts of a block editor that
// live around it: the event bus, the status flags and the id generator.
package editor

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/state"
)

var ErrReadOnly = errors.New("editor is read-only")

const defaultInitialIDLength = 16

type Editor struct {
	Status *StatusSet
	Bus    *Bus

	tree *state.Tree

	logger          *zap.Logger
	generateID      ulid.Generator
	unit            delta.Unit
	observers       []state.Observer
	initialIDLength int
}

// InitialBlocks returns a root block with a single empty text child. Ids
// are taken from gen.
func InitialBlocks(gen ulid.Generator, idLength int) state.Blocks {
	rootID := gen(idLength)
	textID := gen(idLength)
	return state.Blocks{
		rootID: {
			ID:      rootID,
			Version: 1,
			Data:    state.Data{"type": state.TypeRoot, "parent": "", "children": []any{textID}},
		},
		textID: {
			ID:      textID,
			Version: 1,
			Data:    state.Data{"type": state.TypeText, "parent": rootID, "children": []any{}, "delta": []any{}},
		},
	}
}

// New creates an editor over blocks. With no blocks, the document starts
// from InitialBlocks.
func New(blocks state.Blocks, opts ...Option) (*Editor, error) {
	e := &Editor{
		Status:          &StatusSet{},
		initialIDLength: defaultInitialIDLength,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.generateID == nil {
		e.generateID = ulid.ShortID
	}
	e.Bus = NewBus(e.logger)

	if len(blocks) == 0 {
		blocks = InitialBlocks(e.generateID, e.initialIDLength)
	}

	for _, o := range e.observers {
		e.Subscribe(o)
	}

	tree, err := state.New(
		blocks,
		state.WithLogger(e.logger),
		state.WithIDGenerator(e.generateID),
		state.WithLengthUnit(e.unit),
		state.WithObserver(e),
	)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create document tree")
	}
	e.tree = tree

	return e, nil
}

// Subscribe forwards the content events of the bus to o and returns a
// function removing both subscriptions.
func (e *Editor) Subscribe(o state.Observer) (off func()) {
	offWill := e.Bus.On(EventContentWillChange, func(payload any) {
		if event, ok := payload.(state.WillChangeEvent); ok {
			o.ContentWillChange(event)
		}
	})
	offChange := e.Bus.On(EventContentChange, func(payload any) {
		if event, ok := payload.(state.ChangeEvent); ok {
			o.ContentChanged(event)
		}
	})
	return func() {
		offWill()
		offChange()
	}
}

func (e *Editor) Tree() *state.Tree {
	return e.tree
}

func (e *Editor) Logger() *zap.Logger {
	return e.logger
}

// Apply applies changes to the tree. User changes are rejected while the
// editor is read-only.
func (e *Editor) Apply(changes []state.Change, opts state.ApplyOptions) (*state.Result, error) {
	source := opts.Source
	if source == "" {
		source = state.SourceUser
	}
	if source == state.SourceUser && e.Status.IsReadOnly() {
		return nil, ErrReadOnly
	}
	opts.Source = source
	return e.tree.Apply(changes, opts)
}

// Mount marks the editor mounted. Mounting twice only logs a warning.
func (e *Editor) Mount() {
	if e.Status.Get(StatusMounted) {
		e.logger.Warn("editor has been mounted, unmount it before mounting again")
	}
	e.Status.Set(StatusMounted, true)
	e.Bus.Emit(EventMounted, nil)
}

func (e *Editor) Unmount() {
	e.Status.Set(StatusMounted, false)
	e.Bus.Emit(EventUnmounted, nil)
}

// ContentWillChange implements [state.Observer].
func (e *Editor) ContentWillChange(event state.WillChangeEvent) {
	e.Bus.Emit(EventContentWillChange, event)
}

// ContentChanged implements [state.Observer].
func (e *Editor) ContentChanged(event state.ChangeEvent) {
	e.Bus.Emit(EventContentChange, event)
}

// NewBlock returns a change creating a block with data under a fresh id.
func (e *Editor) NewBlock(data state.Data) state.Change {
	return e.tree.NewBlockChange(data)
}

// InsertBlock returns a change inserting childID into parentID at index.
func (e *Editor) InsertBlock(parentID string, index int, childID string) state.Change {
	return state.InsertBlockChange(parentID, index, childID)
}

// DeleteBlock returns a change deleting the child of parentID at index.
func (e *Editor) DeleteBlock(parentID string, index int) state.Change {
	return e.tree.DeleteBlockChange(parentID, index)
}
