package editor

import (
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/state"
)

type Option func(*Editor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

func WithIDGenerator(gen ulid.Generator) Option {
	return func(e *Editor) {
		e.generateID = gen
	}
}

func WithLengthUnit(unit delta.Unit) Option {
	return func(e *Editor) {
		e.unit = unit
	}
}

// WithReadOnly starts the editor with the read-only flag set.
func WithReadOnly() Option {
	return func(e *Editor) {
		e.Status.Set(StatusReadOnly, true)
	}
}

// WithObserver subscribes observer to the content events of the bus.
func WithObserver(observer state.Observer) Option {
	return func(e *Editor) {
		e.observers = append(e.observers, observer)
	}
}

// WithInitialIDLength sets the length of the ids InitialBlocks generates
// when no blocks are given to New.
func WithInitialIDLength(n int) Option {
	return func(e *Editor) {
		e.initialIDLength = n
	}
}
