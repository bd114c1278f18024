// Package testutil holds deterministic helpers shared by scenario and
// replay tests.
package testutil

// SeqClock is a monotonic logical clock for sequencing recorded operations.
//
// The store is single-owner per execution context, so the clock carries no
// locking either. Reset allows the same scenario to run repeatedly with
// identical seq values.
type SeqClock struct {
	seq int64
}

// NewSeqClock creates a clock starting at 0; the first Next returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *SeqClock) Reset() {
	c.seq = 0
}
