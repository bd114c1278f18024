package testutil

import "testing"

func TestSeqClock_Monotonic(t *testing.T) {
	c := NewSeqClock()

	if got := c.Next(); got != 1 {
		t.Errorf("first Next() = %d, want 1", got)
	}
	if got := c.Next(); got != 2 {
		t.Errorf("second Next() = %d, want 2", got)
	}
	if got := c.Current(); got != 2 {
		t.Errorf("Current() = %d, want 2", got)
	}
}

func TestSeqClock_Reset(t *testing.T) {
	c := NewSeqClock()
	c.Next()
	c.Next()
	c.Reset()

	if got := c.Next(); got != 1 {
		t.Errorf("Next() after Reset = %d, want 1", got)
	}
}
