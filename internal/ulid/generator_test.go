package ulid

import (
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	assert.Len(t, id, 26)
	_, err := ulid.Parse(id)
	assert.NoError(t, err)
}

func TestShortID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]+$`)

	for _, n := range []int{1, 6, 10, 16, 20, 40} {
		id := ShortID(n)
		assert.Len(t, id, n)
		assert.Regexp(t, pattern, id)
	}
	assert.Len(t, ShortID(0), defaultShortIDLength)
}

func TestGenerateUniqueID(t *testing.T) {
	for name, generate := range map[string]func() string{
		"ulid":  GenerateID,
		"short": func() string { return ShortID(10) },
	} {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			ids := make(map[string]struct{})
			mu := sync.Mutex{}

			numIDs := 10000

			wg.Add(numIDs)
			for i := 0; i < numIDs; i++ {
				go func() {
					defer wg.Done()
					id := generate()
					mu.Lock()
					defer mu.Unlock()
					ids[id] = struct{}{}
				}()
			}

			wg.Wait()

			assert.Equal(t, numIDs, len(ids))
		})
	}
}

func TestShortID_Sequential(t *testing.T) {
	for _, n := range []int{8, 10} {
		ids := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			ids[ShortID(n)] = struct{}{}
		}
		assert.Len(t, ids, 1000, "length %d", n)
	}
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(StrategyShort)
	require.NoError(t, err)
	assert.Len(t, gen(6), 6)

	gen, err = NewGenerator("")
	require.NoError(t, err)
	assert.Len(t, gen(20), 20)

	gen, err = NewGenerator(StrategyULID)
	require.NoError(t, err)
	_, err = ulid.Parse(gen(6))
	assert.NoError(t, err)

	gen, err = NewGenerator(StrategyUUID)
	require.NoError(t, err)
	_, err = uuid.Parse(gen(6))
	assert.NoError(t, err)

	_, err = NewGenerator("random")
	assert.Error(t, err)
}

func TestMockGenerator(t *testing.T) {
	MockGenerator("01HF7BT3HEQBTBM9SSSP9G6XQB")
	defer ResetGenerator()

	assert.Equal(t, "01HF7BT3HEQBTBM9SSSP9G6XQB", GenerateID())

	gen, err := NewGenerator(StrategyULID)
	require.NoError(t, err)
	assert.Equal(t, "01HF7BT3HEQBTBM9SSSP9G6XQB", gen(0))
}
