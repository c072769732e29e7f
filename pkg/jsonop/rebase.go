package jsonop

// NormalizeBatch rebases list ops that were all authored against the same
// original arrays so that they can be applied one after another.
//
// For an op at original index p the emitted index is
//
//	p + inserts(<= p) - deletes(<= p)
//
// where both counts cover earlier ops of the batch on the same array and
// compare their original indices. Input order is the intended result order:
// several inserts at one position land left to right, and deletes at
// positions that shift as the array shrinks collapse onto the right index.
//
// Ops on different arrays (different path prefixes) do not affect each
// other. A list replace is rebased but shifts nothing. Non-list ops are
// returned unchanged.
func NormalizeBatch(ops []Op) []Op {
	type history struct {
		inserts []int
		deletes []int
	}

	arrays := make(map[string]*history)
	result := make([]Op, 0, len(ops))

	for _, op := range ops {
		idx, ok := op.P.lastIndex()
		if !ok || !op.isListOp() {
			result = append(result, op)
			continue
		}

		key := op.P[:len(op.P)-1].String()
		h, ok := arrays[key]
		if !ok {
			h = &history{}
			arrays[key] = h
		}

		rebased := idx + countAtOrBefore(h.inserts, idx) - countAtOrBefore(h.deletes, idx)

		switch {
		case op.IsListInsert():
			h.inserts = append(h.inserts, idx)
		case op.IsListDelete():
			h.deletes = append(h.deletes, idx)
		}

		result = append(result, op.WithIndex(rebased))
	}

	return result
}

func countAtOrBefore(indices []int, p int) int {
	n := 0
	for _, idx := range indices {
		if idx <= p {
			n++
		}
	}
	return n
}
