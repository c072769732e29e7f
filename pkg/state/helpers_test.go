package state

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/blockstate/internal/ulid"
)

func textBlock(id, parent, text string, children ...string) *Block {
	return &Block{
		ID:      id,
		Version: 1,
		Data: Data{
			"type":     TypeText,
			"parent":   parent,
			"children": toAny(children),
			"delta":    []any{map[string]any{"insert": text}},
		},
	}
}

func rootBlock(id string, children ...string) *Block {
	return &Block{
		ID:      id,
		Version: 1,
		Data: Data{
			"type":     TypeRoot,
			"parent":   "",
			"children": toAny(children),
		},
	}
}

func toAny(ids []string) []any {
	result := make([]any, 0, len(ids))
	for _, id := range ids {
		result = append(result, id)
	}
	return result
}

func blocksOf(blocks ...*Block) Blocks {
	result := make(Blocks, len(blocks))
	for _, b := range blocks {
		result[b.ID] = b
	}
	return result
}

// testBlocks is
//
//	root
//	├── a "abc"
//	├── b "defg"
//	│   └── b1 "hi"
//	└── c (image)
func testBlocks() Blocks {
	return blocksOf(
		rootBlock("root", "a", "b", "c"),
		textBlock("a", "root", "abc"),
		textBlock("b", "root", "defg", "b1"),
		textBlock("b1", "b", "hi"),
		&Block{ID: "c", Version: 1, Data: Data{"type": "image", "parent": "root", "children": []any{}}},
	)
}

func sequence(prefix string) ulid.Generator {
	n := 0
	return func(int) string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestTree(t *testing.T, opts ...Option) *Tree {
	t.Helper()
	tree, err := New(testBlocks(), append([]Option{WithIDGenerator(sequence("new"))}, opts...)...)
	require.NoError(t, err)
	return tree
}

func childIDs(t *testing.T, tree *Tree, id string) []string {
	t.Helper()
	n := tree.Block(id)
	require.NotNil(t, n, id)
	return n.Data().Children()
}

func snapshotIDs(tree *Tree) []string {
	ids := make([]string, 0)
	for id := range tree.Snapshot(false) {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// requireConsistent checks that every visible block is indexed at its
// position in the parent's children and that its depth counts the hops to
// the root.
func requireConsistent(t *testing.T, tree *Tree) {
	t.Helper()
	for id := range tree.Snapshot(false) {
		n := tree.Block(id)
		require.NotNil(t, n, id)
		require.False(t, n.Deleted(), id)
		if id == tree.RootID() {
			assert.Equal(t, 0, n.Depth())
			continue
		}

		parent := n.Parent()
		require.NotNil(t, parent, id)
		assert.Equal(t, slices.Index(parent.Data().Children(), id), n.Index(), id)
		assert.Equal(t, parent.ID(), n.Data().Parent(), id)

		hops := 0
		for p := n; p.Parent() != nil; p = p.Parent() {
			hops++
			require.LessOrEqual(t, hops, tree.Len(), id)
		}
		assert.Equal(t, hops, n.Depth(), id)
	}
}
