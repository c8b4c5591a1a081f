package optimizer

import "sync/atomic"

// AtomicCounter is the fixed-point change detector shared across passes
// within one pass-loop iteration (spec §2 C3, §4.5, §5). It is logically a
// change flag with history: every observable mutation a pass makes
// increments it, and a loop exits once an iteration increments it zero
// times.
//
// The pipeline is single-threaded per compilation (spec §5), so a plain
// int would be observably identical; atomic.Int64 is used anyway because
// spec §5 and §9 specify acquire-release ordering explicitly, to leave the
// API open for a future parallel pass scheduler without changing call
// sites.
type AtomicCounter struct {
	inner atomic.Int64
}

// NewAtomicCounter creates a counter starting at val.
func NewAtomicCounter(val int64) *AtomicCounter {
	c := &AtomicCounter{}
	c.inner.Store(val)
	return c
}

// Inc increments the counter and returns its value *before* the increment.
func (c *AtomicCounter) Inc() int64 {
	return c.inner.Add(1) - 1
}

// Get returns the counter's current value without incrementing it.
func (c *AtomicCounter) Get() int64 {
	return c.inner.Load()
}
