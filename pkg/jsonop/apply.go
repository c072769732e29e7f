package jsonop

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnknownSubtype  = errors.New("unknown subtype")
	ErrUnsupportedRoot = errors.New("unsupported operation on document root")
)

// Applier applies ops to documents built from map[string]any, []any and
// scalars. Maps and lists are mutated in place where possible.
type Applier struct {
	subtypes map[string]Subtype
}

type ApplierOption func(*Applier)

// WithSubtype registers s under its name, replacing any previous one.
func WithSubtype(s Subtype) ApplierOption {
	return func(a *Applier) {
		a.subtypes[s.Name()] = s
	}
}

func NewApplier(opts ...ApplierOption) *Applier {
	a := &Applier{subtypes: make(map[string]Subtype)}
	for _, s := range defaultSubtypes() {
		a.subtypes[s.Name()] = s
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultApplier = NewApplier()

// Apply applies ops in order using the default subtypes.
func Apply(doc any, ops []Op) (any, error) {
	return defaultApplier.Apply(doc, ops)
}

// Apply applies ops strictly in order and returns the resulting document.
// The document may be left partially modified when an error is returned.
func (a *Applier) Apply(doc any, ops []Op) (any, error) {
	for i, op := range ops {
		var err error
		doc, err = a.applyOp(doc, op)
		if err != nil {
			return doc, errors.WithMessagef(err, "op %d (%s at %s)", i, op.Kind(), op.P)
		}
	}
	return doc, nil
}

func (a *Applier) applyOp(doc any, op Op) (any, error) {
	if len(op.P) == 0 {
		return a.applyRoot(doc, op)
	}
	return a.applyAt(doc, op.P, op)
}

func (a *Applier) applyRoot(doc any, op Op) (any, error) {
	switch {
	case op.HasOI():
		return op.OI, nil
	case op.HasOD():
		return nil, nil
	case op.has(fieldNA):
		return addNumber(doc, op.NA)
	case op.has(fieldSubtype):
		return a.applySubtype(doc, op)
	case op.isListOp():
		return doc, errors.Wrap(ErrUnsupportedRoot, "list ops need an index")
	default:
		return doc, nil
	}
}

// applyAt descends along path and returns the (possibly new) value that
// replaces node in its container.
func (a *Applier) applyAt(node any, path Path, op Op) (any, error) {
	if len(path) == 1 {
		return a.applyLeaf(node, path[0], op)
	}

	switch container := node.(type) {
	case map[string]any:
		key, ok := path[0].(string)
		if !ok {
			return node, errors.Wrapf(ErrTypeMismatch, "object key must be a string, got %T", path[0])
		}
		child, ok := container[key]
		if !ok {
			return node, errors.Wrapf(ErrInvalidPath, "missing key %q", key)
		}
		next, err := a.applyAt(child, path[1:], op)
		if err != nil {
			return node, err
		}
		container[key] = next
		return container, nil
	case []any:
		idx, ok := path[0].(int)
		if !ok {
			return node, errors.Wrapf(ErrTypeMismatch, "list index must be an int, got %T", path[0])
		}
		if idx < 0 || idx >= len(container) {
			return node, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", idx, len(container))
		}
		next, err := a.applyAt(container[idx], path[1:], op)
		if err != nil {
			return node, err
		}
		container[idx] = next
		return container, nil
	case nil:
		return node, errors.Wrap(ErrInvalidPath, "nothing at path")
	default:
		return node, errors.Wrapf(ErrTypeMismatch, "cannot descend into %T", node)
	}
}

func (a *Applier) applyLeaf(node any, el any, op Op) (any, error) {
	switch container := node.(type) {
	case []any:
		idx, ok := el.(int)
		if !ok {
			return node, errors.Wrapf(ErrTypeMismatch, "list index must be an int, got %T", el)
		}
		return a.applyList(container, idx, op)
	case map[string]any:
		key, ok := el.(string)
		if !ok {
			return node, errors.Wrapf(ErrTypeMismatch, "object key must be a string, got %T", el)
		}
		return a.applyObject(container, key, op)
	case nil:
		return node, errors.Wrap(ErrInvalidPath, "nothing at path")
	default:
		return node, errors.Wrapf(ErrTypeMismatch, "cannot apply %s to %T", op.Kind(), node)
	}
}

func (a *Applier) applyList(list []any, idx int, op Op) (any, error) {
	switch {
	case op.IsListReplace():
		if idx < 0 || idx >= len(list) {
			return list, errors.Wrapf(ErrIndexOutOfRange, "replace at %d, length %d", idx, len(list))
		}
		list[idx] = op.LI
		return list, nil
	case op.HasLD():
		if idx < 0 || idx >= len(list) {
			return list, errors.Wrapf(ErrIndexOutOfRange, "delete at %d, length %d", idx, len(list))
		}
		return append(list[:idx], list[idx+1:]...), nil
	case op.HasLI():
		if idx < 0 || idx > len(list) {
			return list, errors.Wrapf(ErrIndexOutOfRange, "insert at %d, length %d", idx, len(list))
		}
		list = append(list, nil)
		copy(list[idx+1:], list[idx:])
		list[idx] = op.LI
		return list, nil
	case op.has(fieldNA), op.has(fieldSubtype):
		if idx < 0 || idx >= len(list) {
			return list, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", idx, len(list))
		}
		next, err := a.applyValue(list[idx], op)
		if err != nil {
			return list, err
		}
		list[idx] = next
		return list, nil
	case op.HasOI(), op.HasOD():
		return list, errors.Wrapf(ErrTypeMismatch, "%s on a list", op.Kind())
	default:
		return list, nil
	}
}

func (a *Applier) applyObject(obj map[string]any, key string, op Op) (any, error) {
	switch {
	case op.HasOI():
		obj[key] = op.OI
		return obj, nil
	case op.HasOD():
		delete(obj, key)
		return obj, nil
	case op.has(fieldNA), op.has(fieldSubtype):
		next, err := a.applyValue(obj[key], op)
		if err != nil {
			return obj, err
		}
		obj[key] = next
		return obj, nil
	case op.isListOp():
		return obj, errors.Wrapf(ErrTypeMismatch, "%s on an object", op.Kind())
	default:
		return obj, nil
	}
}

func (a *Applier) applyValue(value any, op Op) (any, error) {
	if op.has(fieldNA) {
		return addNumber(value, op.NA)
	}
	return a.applySubtype(value, op)
}

func (a *Applier) applySubtype(value any, op Op) (any, error) {
	s, ok := a.subtypes[op.T]
	if !ok {
		return value, errors.Wrapf(ErrUnknownSubtype, "%q", op.T)
	}
	return s.Apply(value, op.O)
}

func addNumber(value any, n float64) (any, error) {
	switch v := value.(type) {
	case float64:
		return v + n, nil
	case int:
		if n == float64(int(n)) {
			return v + int(n), nil
		}
		return float64(v) + n, nil
	case nil:
		return value, errors.Wrap(ErrInvalidPath, "nothing at path")
	default:
		return value, errors.Wrapf(ErrTypeMismatch, "number add on %T", value)
	}
}
