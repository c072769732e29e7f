// Package jsonop implements positional operations on JSON-shaped values
// (maps of string keys, lists, scalars) and the rebasing of list operations
// authored against a shared original snapshot.
//
// An operation targets the value at path P and carries any of:
//
//	li    list insert at the index P ends with
//	ld    list delete at that index
//	li+ld list replace
//	oi    object insert (or replace when od is present too)
//	od    object delete
//	na    number add
//	t/o   subtype operation o of the registered subtype t
package jsonop

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Path addresses a value inside a document. Elements are string keys or int
// indices.
type Path []any

func (p Path) String() string {
	parts := make([]string, 0, len(p))
	for _, el := range p {
		switch v := el.(type) {
		case int:
			parts = append(parts, strconv.Itoa(v))
		case string:
			parts = append(parts, strconv.Quote(v))
		default:
			parts = append(parts, "?")
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Clone returns a copy of p that does not share its backing array.
func (p Path) Clone() Path {
	if p == nil {
		return Path{}
	}
	return append(Path(nil), p...)
}

// Key returns the first element if it is a string.
func (p Path) Key() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	k, ok := p[0].(string)
	return k, ok
}

func (p Path) lastIndex() (int, bool) {
	if len(p) == 0 {
		return 0, false
	}
	idx, ok := p[len(p)-1].(int)
	return idx, ok
}

type field uint8

const (
	fieldLI field = 1 << iota
	fieldLD
	fieldOI
	fieldOD
	fieldNA
	fieldSubtype
)

type Op struct {
	P  Path
	LI any
	LD any
	OI any
	OD any
	NA float64
	// T names the subtype, O is the subtype operation.
	T string
	O any

	fields field
}

func ListInsert(p Path, value any) Op {
	return Op{P: p, LI: value, fields: fieldLI}
}

func ListDelete(p Path, value any) Op {
	return Op{P: p, LD: value, fields: fieldLD}
}

func ListReplace(p Path, before, after any) Op {
	return Op{P: p, LD: before, LI: after, fields: fieldLI | fieldLD}
}

func ObjectInsert(p Path, value any) Op {
	return Op{P: p, OI: value, fields: fieldOI}
}

func ObjectDelete(p Path, value any) Op {
	return Op{P: p, OD: value, fields: fieldOD}
}

func ObjectReplace(p Path, before, after any) Op {
	return Op{P: p, OD: before, OI: after, fields: fieldOI | fieldOD}
}

func NumberAdd(p Path, n float64) Op {
	return Op{P: p, NA: n, fields: fieldNA}
}

func SubtypeOp(p Path, subtype string, op any) Op {
	return Op{P: p, T: subtype, O: op, fields: fieldSubtype}
}

func (op Op) has(f field) bool { return op.fields&f != 0 }

func (op Op) HasLI() bool { return op.has(fieldLI) }
func (op Op) HasLD() bool { return op.has(fieldLD) }
func (op Op) HasOI() bool { return op.has(fieldOI) }
func (op Op) HasOD() bool { return op.has(fieldOD) }

// IsListInsert reports a pure insert, not a replace.
func (op Op) IsListInsert() bool { return op.HasLI() && !op.HasLD() }

// IsListDelete reports a pure delete, not a replace.
func (op Op) IsListDelete() bool { return op.HasLD() && !op.HasLI() }

func (op Op) IsListReplace() bool { return op.HasLI() && op.HasLD() }

func (op Op) isListOp() bool { return op.HasLI() || op.HasLD() }

// Kind names the op for diagnostics.
func (op Op) Kind() string {
	switch {
	case op.IsListReplace():
		return "list-replace"
	case op.HasLI():
		return "list-insert"
	case op.HasLD():
		return "list-delete"
	case op.HasOI() && op.HasOD():
		return "object-replace"
	case op.HasOI():
		return "object-insert"
	case op.HasOD():
		return "object-delete"
	case op.has(fieldNA):
		return "number-add"
	case op.has(fieldSubtype):
		return "subtype"
	default:
		return "noop"
	}
}

// WithIndex returns a copy of op with the last path element replaced by idx.
func (op Op) WithIndex(idx int) Op {
	p := op.P.Clone()
	if len(p) > 0 {
		p[len(p)-1] = idx
	}
	op.P = p
	return op
}

func (op Op) MarshalJSON() ([]byte, error) {
	m := map[string]any{"p": op.P.Clone()}
	if op.has(fieldLI) {
		m["li"] = op.LI
	}
	if op.has(fieldLD) {
		m["ld"] = op.LD
	}
	if op.has(fieldOI) {
		m["oi"] = op.OI
	}
	if op.has(fieldOD) {
		m["od"] = op.OD
	}
	if op.has(fieldNA) {
		m["na"] = op.NA
	}
	if op.has(fieldSubtype) {
		m["t"] = op.T
		m["o"] = op.O
	}
	return json.Marshal(m)
}

func (op *Op) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WithStack(err)
	}

	var result Op

	if p, ok := raw["p"]; ok {
		var elements []any
		if err := json.Unmarshal(p, &elements); err != nil {
			return errors.Wrap(err, "failed to decode path")
		}
		path, err := ParsePath(elements)
		if err != nil {
			return err
		}
		result.P = path
	} else {
		result.P = Path{}
	}

	decode := func(name string, f field, dst *any) error {
		v, ok := raw[name]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return errors.Wrapf(err, "failed to decode %q", name)
		}
		result.fields |= f
		return nil
	}
	if err := decode("li", fieldLI, &result.LI); err != nil {
		return err
	}
	if err := decode("ld", fieldLD, &result.LD); err != nil {
		return err
	}
	if err := decode("oi", fieldOI, &result.OI); err != nil {
		return err
	}
	if err := decode("od", fieldOD, &result.OD); err != nil {
		return err
	}
	if v, ok := raw["na"]; ok {
		if err := json.Unmarshal(v, &result.NA); err != nil {
			return errors.Wrap(err, "failed to decode \"na\"")
		}
		result.fields |= fieldNA
	}
	if v, ok := raw["t"]; ok {
		if err := json.Unmarshal(v, &result.T); err != nil {
			return errors.Wrap(err, "failed to decode \"t\"")
		}
		if err := decode("o", fieldSubtype, &result.O); err != nil {
			return err
		}
		result.fields |= fieldSubtype
	}

	*op = result
	return nil
}

// ParsePath converts decoded JSON path elements into a Path. Integral
// numbers become indices.
func ParsePath(elements []any) (Path, error) {
	path := make(Path, 0, len(elements))
	for _, el := range elements {
		switch v := el.(type) {
		case string:
			path = append(path, v)
		case int:
			path = append(path, v)
		case float64:
			if v != float64(int(v)) {
				return nil, errors.Wrapf(ErrInvalidPath, "non-integer index %v", v)
			}
			path = append(path, int(v))
		default:
			return nil, errors.Wrapf(ErrInvalidPath, "unsupported path element %T", el)
		}
	}
	return path, nil
}
