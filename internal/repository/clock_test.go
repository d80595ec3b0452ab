package repository

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorIsMonotonicUnderFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	gen := NewIDGenerator(func() time.Time { return frozen })

	assert.Equal(t, "1700000000000", gen.Next())
	assert.Equal(t, "1700000000001", gen.Next())
	assert.Equal(t, "1700000000002", gen.Next())
}

func TestIDGeneratorConcurrentUnique(t *testing.T) {
	gen := NewIDGenerator(nil)
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Next()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for id := range seen {
		_, err := strconv.ParseInt(id, 10, 64)
		assert.NoError(t, err)
	}
}

func TestNextUpdatedAt(t *testing.T) {
	prev := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, prev.Add(time.Second), nextUpdatedAt(prev.Add(time.Second), prev))
	assert.Equal(t, prev.Add(time.Millisecond), nextUpdatedAt(prev, prev))
	assert.Equal(t, prev.Add(time.Millisecond), nextUpdatedAt(prev.Add(-time.Hour), prev))
}
