package jsonop

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(values ...int) []any {
	result := make([]any, 0, len(values))
	for _, v := range values {
		result = append(result, v)
	}
	return result
}

func applyBatch(t *testing.T, snapshot []any, ops []Op) ([]Op, []any) {
	t.Helper()
	batch := NormalizeBatch(ops)
	next, err := Apply(snapshot, batch)
	require.NoError(t, err)
	return batch, next.([]any)
}

func TestNormalizeBatch(t *testing.T) {
	t.Parallel()

	t.Run("list insert", func(t *testing.T) {
		ops := []Op{
			ListInsert(Path{1}, 1),
			ListInsert(Path{1}, 2),
			ListInsert(Path{1}, 3),
			ListInsert(Path{1}, 3),
		}
		batch, next := applyBatch(t, ints(0), ops)
		assert.Equal(t, ListInsert(Path{1}, 1), batch[0])
		assert.Equal(t, ListInsert(Path{2}, 2), batch[1])
		assert.Equal(t, ListInsert(Path{3}, 3), batch[2])
		assert.Equal(t, ListInsert(Path{4}, 3), batch[3])
		assert.Equal(t, ints(0, 1, 2, 3, 3), next)
	})

	t.Run("list delete", func(t *testing.T) {
		ops := []Op{
			ListDelete(Path{1}, 1),
			ListDelete(Path{2}, 2),
			ListDelete(Path{3}, 3),
			ListDelete(Path{4}, 3),
		}
		batch, next := applyBatch(t, ints(0, 1, 2, 3, 3), ops)
		for i, op := range batch {
			assert.Equal(t, ListDelete(Path{1}, ops[i].LD), op)
		}
		assert.Equal(t, ints(0), next)
	})

	t.Run("list delete in random order", func(t *testing.T) {
		ops := []Op{
			ListDelete(Path{1}, 1),
			ListDelete(Path{4}, 3),
			ListDelete(Path{2}, 2),
			ListDelete(Path{3}, 3),
		}
		batch, next := applyBatch(t, ints(0, 1, 2, 3, 3), ops)
		assert.Equal(t, ListDelete(Path{1}, 1), batch[0])
		assert.Equal(t, ListDelete(Path{3}, 3), batch[1])
		assert.Equal(t, ListDelete(Path{1}, 2), batch[2])
		assert.Equal(t, ListDelete(Path{1}, 3), batch[3])
		assert.Equal(t, ints(0), next)
	})

	t.Run("list insert and delete", func(t *testing.T) {
		ops := []Op{
			ListInsert(Path{2}, 4),
			ListInsert(Path{3}, 5),
			ListDelete(Path{1}, 1),
			ListDelete(Path{2}, 2),
		}
		batch, next := applyBatch(t, ints(0, 1, 2, 3, 4, 5), ops)
		assert.Equal(t, ListInsert(Path{2}, 4), batch[0])
		assert.Equal(t, ListInsert(Path{4}, 5), batch[1])
		assert.Equal(t, ListDelete(Path{1}, 1), batch[2])
		assert.Equal(t, ListDelete(Path{2}, 2), batch[3])
		assert.Equal(t, ints(0, 4, 5, 3, 4, 5), next)
	})

	t.Run("arrays are rebased independently", func(t *testing.T) {
		ops := []Op{
			ListInsert(Path{"children", 0}, "a"),
			ListInsert(Path{"tags", 0}, "x"),
			ListInsert(Path{"children", 0}, "b"),
		}
		batch := NormalizeBatch(ops)
		assert.Equal(t, ListInsert(Path{"children", 0}, "a"), batch[0])
		assert.Equal(t, ListInsert(Path{"tags", 0}, "x"), batch[1])
		assert.Equal(t, ListInsert(Path{"children", 1}, "b"), batch[2])
	})

	t.Run("non-list ops pass through", func(t *testing.T) {
		ops := []Op{
			ObjectInsert(Path{"type"}, "text"),
			ListInsert(Path{"children", 0}, "a"),
			NumberAdd(Path{"count"}, 1),
			ObjectInsert(Path{}, map[string]any{}),
		}
		assert.Equal(t, ops, NormalizeBatch(ops))
	})

	t.Run("replace shifts nothing", func(t *testing.T) {
		ops := []Op{
			ListReplace(Path{0}, 0, 9),
			ListInsert(Path{0}, 7),
		}
		batch, next := applyBatch(t, ints(0, 1), ops)
		assert.Equal(t, ListReplace(Path{0}, 0, 9), batch[0])
		assert.Equal(t, ListInsert(Path{0}, 7), batch[1])
		assert.Equal(t, ints(7, 9, 1), next)
	})

	t.Run("input is not modified", func(t *testing.T) {
		ops := []Op{ListInsert(Path{1}, 1), ListInsert(Path{1}, 2)}
		_ = NormalizeBatch(ops)
		assert.Equal(t, Path{1}, ops[1].P)
	})
}

func TestNormalizeBatch_InsertOrderPreserved(t *testing.T) {
	t.Parallel()

	for k := 1; k <= 6; k++ {
		for p := 0; p <= 3; p++ {
			ops := make([]Op, 0, k)
			for i := 0; i < k; i++ {
				ops = append(ops, ListInsert(Path{p}, 100+i))
			}
			batch := NormalizeBatch(ops)
			for i, op := range batch {
				assert.Equal(t, Path{p + i}, op.P)
				assert.Equal(t, 100+i, op.LI)
			}
		}
	}
}

// simultaneous applies intents against the original snapshot at once:
// inserts at p land before original element p in input order, deletes
// remove original elements.
func simultaneous(snapshot []any, ops []Op) []any {
	inserts := make(map[int][]any)
	deleted := make(map[int]bool)
	for _, op := range ops {
		idx, _ := op.P.lastIndex()
		if op.IsListInsert() {
			inserts[idx] = append(inserts[idx], op.LI)
		} else if op.IsListDelete() {
			deleted[idx] = true
		}
	}
	result := []any{}
	for p := 0; p <= len(snapshot); p++ {
		result = append(result, inserts[p]...)
		if p < len(snapshot) && !deleted[p] {
			result = append(result, snapshot[p])
		}
	}
	return result
}

func TestNormalizeBatch_RoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		size := 1 + rng.Intn(8)
		snapshot := make([]any, size)
		for i := range snapshot {
			snapshot[i] = i
		}

		var ops []Op
		for i, n := 0, rng.Intn(5); i < n; i++ {
			ops = append(ops, ListInsert(Path{rng.Intn(size + 1)}, 100+i))
		}
		for _, p := range rng.Perm(size)[:rng.Intn(size+1)] {
			ops = append(ops, ListDelete(Path{p}, p))
		}

		want := simultaneous(snapshot, ops)
		got, err := Apply(append([]any(nil), snapshot...), NormalizeBatch(ops))
		require.NoError(t, err)
		require.Equal(t, want, got, "ops: %v", ops)
	}
}

func TestNormalizeBatch_DeletePermutation(t *testing.T) {
	t.Parallel()

	snapshot := ints(0, 1, 2, 3, 4, 5, 6)
	positions := []int{1, 3, 4, 6}
	want := ints(0, 2, 5)

	rng := rand.New(rand.NewSource(3))
	for iter := 0; iter < 50; iter++ {
		ops := make([]Op, 0, len(positions))
		for _, i := range rng.Perm(len(positions)) {
			ops = append(ops, ListDelete(Path{positions[i]}, positions[i]))
		}
		got, err := Apply(append([]any(nil), snapshot...), NormalizeBatch(ops))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}
