package state

import (
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
)

type Option func(*Tree)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(t *Tree) {
		t.observer = observer
	}
}

// WithIDGenerator sets the generator of transaction and block ids.
func WithIDGenerator(gen ulid.Generator) Option {
	return func(t *Tree) {
		t.generateID = gen
	}
}

// WithLengthUnit sets the unit text lengths are measured in.
func WithLengthUnit(unit delta.Unit) Option {
	return func(t *Tree) {
		t.unit = unit
	}
}
