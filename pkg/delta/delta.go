// Package delta implements the rich-text operation sequences carried by
// text blocks. A Delta is an ordered list of insert, retain and delete ops,
// each optionally annotated with formatting attributes.
package delta

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

var ErrInvalidOp = errors.New("invalid delta op")

type Op struct {
	Insert     any            `json:"insert,omitempty"`
	Retain     int            `json:"retain,omitempty"`
	Delete     int            `json:"delete,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// IsInsert reports whether op inserts a string or an embed.
func (op Op) IsInsert() bool {
	return op.Insert != nil
}

func (op Op) IsDelete() bool {
	return op.Insert == nil && op.Delete > 0
}

func (op Op) IsRetain() bool {
	return op.Insert == nil && op.Delete == 0 && op.Retain > 0
}

// Text returns the inserted string. Embeds and non-insert ops yield "".
func (op Op) Text() string {
	s, _ := op.Insert.(string)
	return s
}

type Delta []Op

// Insert appends a string insert.
func (d Delta) Insert(text string, attrs map[string]any) Delta {
	if text == "" {
		return d
	}
	return d.push(Op{Insert: text, Attributes: attrs})
}

// InsertEmbed appends a non-text insert. Embeds count as a single unit.
func (d Delta) InsertEmbed(embed map[string]any, attrs map[string]any) Delta {
	return d.push(Op{Insert: embed, Attributes: attrs})
}

func (d Delta) Retain(n int, attrs map[string]any) Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Retain: n, Attributes: attrs})
}

func (d Delta) Delete(n int) Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Delete: n})
}

// Value converts d into the generic JSON shape stored in block data.
func (d Delta) Value() []any {
	result := make([]any, 0, len(d))
	for _, op := range d {
		m := make(map[string]any, 2)
		switch {
		case op.IsInsert():
			m["insert"] = op.Insert
		case op.IsDelete():
			m["delete"] = op.Delete
		default:
			m["retain"] = op.Retain
		}
		if len(op.Attributes) > 0 {
			m["attributes"] = cloneAttributes(op.Attributes)
		}
		result = append(result, m)
	}
	return result
}

// FromValue converts a decoded JSON value into a Delta. Zero-length ops are
// dropped.
func FromValue(v any) (Delta, error) {
	switch value := v.(type) {
	case nil:
		return Delta{}, nil
	case Delta:
		return value, nil
	case []Op:
		return Delta(value), nil
	case []map[string]any:
		items := make([]any, 0, len(value))
		for _, m := range value {
			items = append(items, m)
		}
		return FromValue(items)
	case []any:
		result := make(Delta, 0, len(value))
		for i, item := range value {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidOp, "op %d: expected object, got %T", i, item)
			}
			op, err := opFromMap(m)
			if err != nil {
				return nil, errors.WithMessagef(err, "op %d", i)
			}
			if op.IsInsert() || op.Delete > 0 || op.Retain > 0 {
				result = append(result, op)
			}
		}
		return result, nil
	default:
		return nil, errors.Wrapf(ErrInvalidOp, "expected list, got %T", v)
	}
}

func opFromMap(m map[string]any) (Op, error) {
	var op Op
	if insert, ok := m["insert"]; ok {
		switch ins := insert.(type) {
		case string, map[string]any:
			op.Insert = ins
		default:
			return op, errors.Wrapf(ErrInvalidOp, "insert must be a string or an object, got %T", insert)
		}
	}
	if v, ok := m["retain"]; ok {
		n, err := toCount(v)
		if err != nil {
			return op, errors.WithMessage(err, "retain")
		}
		op.Retain = n
	}
	if v, ok := m["delete"]; ok {
		n, err := toCount(v)
		if err != nil {
			return op, errors.WithMessage(err, "delete")
		}
		op.Delete = n
	}
	if v, ok := m["attributes"]; ok && v != nil {
		attrs, ok := v.(map[string]any)
		if !ok {
			return op, errors.Wrapf(ErrInvalidOp, "attributes must be an object, got %T", v)
		}
		op.Attributes = attrs
	}
	return op, nil
}

func toCount(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || n < 0 {
			return 0, errors.Wrapf(ErrInvalidOp, "count must be a non-negative integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.Wrap(ErrInvalidOp, err.Error())
		}
		return int(i), nil
	default:
		return 0, errors.Wrapf(ErrInvalidOp, "count must be a number, got %T", v)
	}
}

func cloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	result := make(map[string]any, len(attrs))
	for k, v := range attrs {
		result[k] = v
	}
	return result
}
