package ulid

import (
	cryptorand "crypto/rand"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// Generator returns a new identifier. Short-id generators honor the
// requested length n; ULID and UUID generators ignore it.
type Generator func(n int) string

const (
	StrategyShort = "short"
	StrategyULID  = "ulid"
	StrategyUUID  = "uuid"
)

const defaultShortIDLength = 16

var (
	entropy     io.Reader
	entropyOnce sync.Once
	generator   = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return generator()
}

func DefaultGenerator() string {
	entropy := DefaultEntropy()
	now := time.Now()
	ts := ulid.Timestamp(now)
	return ulid.MustNew(ts, entropy).String()
}

func ResetGenerator() {
	generator = DefaultGenerator
}

func MockGenerator(mockValue string) {
	generator = func() string {
		return mockValue
	}
}

// ShortID returns a lowercase id of n characters built from the random
// part of fresh ULIDs. A non-positive n uses the default length.
//
// The entropy is not monotonic: within one millisecond a monotonic reader
// only increments the previous value, leaving the leading characters equal.
func ShortID(n int) string {
	if n <= 0 {
		n = defaultShortIDLength
	}
	var b strings.Builder
	for b.Len() < n {
		id := ulid.MustNew(ulid.Now(), cryptorand.Reader)
		b.WriteString(strings.ToLower(id.String()[10:]))
	}
	return b.String()[:n]
}

// NewGenerator returns the generator for strategy.
func NewGenerator(strategy string) (Generator, error) {
	switch strategy {
	case "", StrategyShort:
		return ShortID, nil
	case StrategyULID:
		return func(int) string { return GenerateID() }, nil
	case StrategyUUID:
		return func(int) string { return uuid.NewString() }, nil
	default:
		return nil, errors.Errorf("unknown id strategy %q", strategy)
	}
}
