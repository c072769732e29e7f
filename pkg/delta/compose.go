package delta

import (
	"math"
	"reflect"
)

// Compose returns a delta equivalent to applying a and then b. Lengths are
// measured in unit u.
func Compose(a, b Delta, u Unit) Delta {
	this := newIterator(a, u)
	other := newIterator(b, u)
	var result Delta

	for this.hasNext() || other.hasNext() {
		switch {
		case other.peekKind() == kindInsert:
			result = result.push(other.next(math.MaxInt))
		case this.peekKind() == kindDelete:
			result = result.push(this.next(math.MaxInt))
		default:
			length := min(this.peekLength(), other.peekLength())
			thisOp := this.next(length)
			otherOp := other.next(length)

			if otherOp.IsRetain() {
				var op Op
				if thisOp.IsRetain() {
					op.Retain = length
				} else {
					op.Insert = thisOp.Insert
				}
				op.Attributes = composeAttributes(thisOp.Attributes, otherOp.Attributes, thisOp.IsRetain())
				result = result.push(op)
			} else if otherOp.IsDelete() && thisOp.IsRetain() {
				result = result.push(otherOp)
			}
			// An insert followed by a delete of the same span cancels out.
		}
	}

	return result.chop()
}

func composeAttributes(a, b map[string]any, keepNull bool) map[string]any {
	attrs := make(map[string]any, len(a)+len(b))
	for k, v := range b {
		if v == nil && !keepNull {
			continue
		}
		attrs[k] = v
	}
	for k, v := range a {
		if _, ok := b[k]; !ok {
			attrs[k] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func (d Delta) push(op Op) Delta {
	if !op.IsInsert() && op.Delete <= 0 && op.Retain <= 0 {
		return d
	}
	if len(op.Attributes) == 0 {
		op.Attributes = nil
	}

	idx := len(d)
	if idx == 0 {
		return append(d, op)
	}
	last := &d[idx-1]
	if op.IsDelete() && last.IsDelete() {
		last.Delete += op.Delete
		return d
	}
	// Inserts are kept ahead of an adjacent delete.
	if last.IsDelete() && op.IsInsert() {
		idx--
		if idx == 0 {
			return append(Delta{op}, d...)
		}
		last = &d[idx-1]
	}
	if reflect.DeepEqual(last.Attributes, op.Attributes) {
		lastText, lastIsText := last.Insert.(string)
		opText, opIsText := op.Insert.(string)
		if lastIsText && opIsText {
			last.Insert = lastText + opText
			return d
		}
		if last.IsRetain() && op.IsRetain() {
			last.Retain += op.Retain
			return d
		}
	}
	if idx == len(d) {
		return append(d, op)
	}
	d = append(d, Op{})
	copy(d[idx+1:], d[idx:])
	d[idx] = op
	return d
}

// chop drops a trailing plain retain.
func (d Delta) chop() Delta {
	if n := len(d); n > 0 && d[n-1].IsRetain() && d[n-1].Attributes == nil {
		return d[:n-1]
	}
	return d
}

type opKind int

const (
	kindRetain opKind = iota
	kindInsert
	kindDelete
)

type iterator struct {
	ops    Delta
	index  int
	offset int
	unit   Unit
}

func newIterator(ops Delta, u Unit) *iterator {
	return &iterator{ops: ops, unit: u}
}

func (it *iterator) hasNext() bool {
	return it.peekLength() < math.MaxInt
}

func (it *iterator) peekLength() int {
	if it.index < len(it.ops) {
		return OpLength(it.ops[it.index], it.unit) - it.offset
	}
	return math.MaxInt
}

func (it *iterator) peekKind() opKind {
	if it.index >= len(it.ops) {
		return kindRetain
	}
	op := it.ops[it.index]
	switch {
	case op.IsDelete():
		return kindDelete
	case op.IsRetain():
		return kindRetain
	default:
		return kindInsert
	}
}

func (it *iterator) next(length int) Op {
	if it.index >= len(it.ops) {
		return Op{Retain: math.MaxInt}
	}

	op := it.ops[it.index]
	offset := it.offset
	opLength := OpLength(op, it.unit)
	if length >= opLength-offset {
		length = opLength - offset
		it.index++
		it.offset = 0
	} else {
		it.offset += length
	}

	if op.IsDelete() {
		return Op{Delete: length}
	}
	result := Op{Attributes: cloneAttributes(op.Attributes)}
	switch {
	case op.IsRetain():
		result.Retain = length
	case op.Text() != "":
		result.Insert = sliceText(op.Text(), offset, length, it.unit)
	default:
		result.Insert = op.Insert
	}
	return result
}
