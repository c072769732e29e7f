package state

import (
	"bytes"
	"encoding/json"

	"github.com/elliotchance/orderedmap"
	"github.com/pkg/errors"

	"github.com/stateful/blockstate/pkg/jsonop"
)

// Change is a list of operations addressed to one block.
type Change struct {
	ID  string      `json:"id"`
	Ops []jsonop.Op `json:"ops"`
}

// Batch maps target block ids to their operations. Targets keep the order
// of their first appearance.
type Batch struct {
	m *orderedmap.OrderedMap
}

func NewBatch() *Batch {
	return &Batch{m: orderedmap.NewOrderedMap()}
}

// Add appends ops to the list of target id.
func (b *Batch) Add(id string, ops ...jsonop.Op) {
	b.m.Set(id, append(b.Ops(id), ops...))
}

func (b *Batch) Ops(id string) []jsonop.Op {
	v, ok := b.m.Get(id)
	if !ok {
		return nil
	}
	return v.([]jsonop.Op)
}

func (b *Batch) Targets() []string {
	ids := make([]string, 0, b.m.Len())
	for el := b.m.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Key.(string))
	}
	return ids
}

func (b *Batch) Len() int {
	return b.m.Len()
}

// MarshalJSON encodes the batch as an object keyed by target id, in target
// order.
func (b *Batch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := b.m.Front(); el != nil; el = el.Next() {
		if el != b.m.Front() {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		ops := el.Value.([]jsonop.Op)
		if ops == nil {
			ops = []jsonop.Op{}
		}
		value, err := json.Marshal(ops)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizeChanges groups changes by target, concatenating the ops of
// repeated targets in order, and rebases each target's list ops so they
// apply sequentially.
func NormalizeChanges(changes []Change) *Batch {
	grouped := NewBatch()
	for _, c := range changes {
		grouped.Add(c.ID, c.Ops...)
	}

	result := NewBatch()
	for _, id := range grouped.Targets() {
		result.m.Set(id, jsonop.NormalizeBatch(grouped.Ops(id)))
	}
	return result
}
