package repository

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time. Tests replace it to pin timestamps.
type Clock func() time.Time

// SystemClock returns UTC wall time at millisecond precision.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// nextUpdatedAt guarantees updatedAt strictly advances even when the clock has not.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

// IDGenerator issues timestamp-derived identifiers that are strictly increasing
// within the process.
type IDGenerator struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

// NewIDGenerator builds a generator reading milliseconds from clock.
func NewIDGenerator(clock Clock) *IDGenerator {
	if clock == nil {
		clock = SystemClock
	}
	return &IDGenerator{clock: clock}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.clock().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
