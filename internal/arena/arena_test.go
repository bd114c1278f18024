package arena

import (
	"bytes"
	"testing"
)

func TestCopy_ReturnsIndependentCopy(t *testing.T) {
	a := New("test")
	src := []byte{1, 2, 3}

	got := a.Copy(src)
	src[0] = 99

	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("arena copy aliases caller memory: %v", got)
	}
}

func TestCopy_TracksStats(t *testing.T) {
	a := New("test")
	a.Copy([]byte("abc"))
	a.Copy([]byte("de"))

	if a.Allocs() != 2 {
		t.Errorf("Allocs() = %d, want 2", a.Allocs())
	}
	if a.Bytes() != 5 {
		t.Errorf("Bytes() = %d, want 5", a.Bytes())
	}
}

func TestCopy_Oversized(t *testing.T) {
	a := New("test")
	big := make([]byte, slabSize+1)
	big[slabSize] = 7

	got := a.Copy(big)
	if len(got) != slabSize+1 || got[slabSize] != 7 {
		t.Error("oversized payload not copied intact")
	}
}

func TestCopy_Empty(t *testing.T) {
	a := New("test")
	got := a.Copy(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Copy(nil) = %v, want empty non-nil slice", got)
	}
}

func TestCopy_AdjacentAllocationsDoNotOverlap(t *testing.T) {
	a := New("test")
	first := a.Copy([]byte("aaaa"))
	second := a.Copy([]byte("bbbb"))

	// Appending to the first allocation must not clobber the second.
	_ = append(first, 'x')
	if !bytes.Equal(second, []byte("bbbb")) {
		t.Errorf("second allocation corrupted: %q", second)
	}
}

func TestRelease(t *testing.T) {
	a := New("txn")
	a.Copy([]byte("payload"))
	a.Release()

	if !a.Released() {
		t.Error("Released() = false after Release")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on Copy after Release")
		}
	}()
	a.Copy([]byte("late"))
}
