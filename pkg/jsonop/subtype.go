package jsonop

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/stateful/blockstate/pkg/delta"
)

// Subtype applies an embedded operation type to the value at a path.
type Subtype interface {
	Name() string
	Apply(snapshot any, op any) (any, error)
}

// DeltaSubtype composes a rich-text delta onto a delta stored at the path.
// The result is stored in its generic JSON shape.
type DeltaSubtype struct {
	Unit delta.Unit
}

const DeltaSubtypeName = "delta"

func (DeltaSubtype) Name() string { return DeltaSubtypeName }

func (s DeltaSubtype) Apply(snapshot any, op any) (any, error) {
	doc, err := delta.FromValue(snapshot)
	if err != nil {
		return snapshot, multierr.Combine(errors.WithMessage(ErrTypeMismatch, "stored value is not a delta"), err)
	}
	change, err := delta.FromValue(op)
	if err != nil {
		return snapshot, errors.Wrap(err, "invalid delta operation")
	}
	return delta.Compose(doc, change, s.Unit).Value(), nil
}

func defaultSubtypes() []Subtype {
	return []Subtype{DeltaSubtype{Unit: delta.UnitUTF16}}
}
