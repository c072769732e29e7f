// Package state holds the structural document state of a block editor: an
// arena of blocks forming a tree, lazily recomputed block metadata, and the
// pipeline applying batches of block operations to it.
package state

const (
	TypeRoot = "ROOT"
	TypeText = "text"
)

const (
	keyType     = "type"
	keyParent   = "parent"
	keyChildren = "children"
	keyDelta    = "delta"
)

// Block is the externally shaped record of a block.
type Block struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Data    Data   `json:"data"`
}

// Blocks maps block ids to their records.
type Blocks map[string]*Block

// Data is the mutable payload of a block. It always carries "type",
// "parent" and "children"; text blocks also carry "delta". Other keys are
// free-form attributes.
type Data map[string]any

func (d Data) Type() string {
	s, _ := d[keyType].(string)
	return s
}

func (d Data) Parent() string {
	s, _ := d[keyParent].(string)
	return s
}

// Children returns the child ids. Non-string entries are skipped.
func (d Data) Children() []string {
	switch v := d[keyChildren].(type) {
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
		return ids
	case []string:
		return append([]string(nil), v...)
	default:
		return nil
	}
}

// HasDelta reports whether the block is text-bearing.
func (d Data) HasDelta() bool {
	v, ok := d[keyDelta]
	return ok && v != nil
}

// Clone returns a deep copy of d in the generic JSON shape.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return Data(cloneValue(map[string]any(d)).(map[string]any))
}

// shallowCopy copies the top level of d and the children list.
func (d Data) shallowCopy() Data {
	result := make(Data, len(d))
	for k, v := range d {
		result[k] = v
	}
	if children, ok := d[keyChildren].([]any); ok {
		result[keyChildren] = append([]any{}, children...)
	}
	return result
}

// cloneValue deep-copies v and normalizes typed containers into the
// map[string]any and []any shapes operations are applied to.
func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(value))
		for k, item := range value {
			result[k] = cloneValue(item)
		}
		return result
	case Data:
		return cloneValue(map[string]any(value))
	case []any:
		result := make([]any, len(value))
		for i, item := range value {
			result[i] = cloneValue(item)
		}
		return result
	case []string:
		result := make([]any, len(value))
		for i, item := range value {
			result[i] = item
		}
		return result
	case []map[string]any:
		result := make([]any, len(value))
		for i, item := range value {
			result[i] = cloneValue(item)
		}
		return result
	default:
		return v
	}
}

func placeholderData() Data {
	return Data{
		keyType:     TypeText,
		keyParent:   "",
		keyDelta:    []any{},
		keyChildren: []any{},
	}
}
