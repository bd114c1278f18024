// Package arena provides scope-owned allocation regions.
//
// An Arena copies variable-length payloads into storage whose lifetime is
// tied to its owning scope (a transaction or a session). Nothing is freed
// individually: Release drops every allocation in bulk when the scope ends.
package arena

import "fmt"

// Slab size for bump allocation. Payloads larger than this get their own slab.
const slabSize = 8 * 1024

// Arena is a bump allocator owned by a single scope.
// It is single-owner like everything else in the store: no locking.
type Arena struct {
	scope    string
	slabs    [][]byte
	cur      []byte
	off      int
	bytes    int64
	allocs   int64
	released bool
}

// New creates an arena. The scope label only shows up in diagnostics.
func New(scope string) *Arena {
	return &Arena{scope: scope}
}

// Copy copies b into arena-owned storage and returns the copy.
// The returned slice is valid until Release.
//
// Panics if the arena has been released: a write landing in a dead scope is
// a lifetime bug in the caller, not a recoverable condition.
func (a *Arena) Copy(b []byte) []byte {
	if a.released {
		panic(fmt.Sprintf("arena %q: Copy after Release", a.scope))
	}
	a.allocs++
	a.bytes += int64(len(b))
	if len(b) == 0 {
		return []byte{}
	}
	if len(b) > slabSize {
		// Oversized payloads get a dedicated slab.
		dst := make([]byte, len(b))
		copy(dst, b)
		a.slabs = append(a.slabs, dst)
		return dst
	}
	if a.cur == nil || a.off+len(b) > len(a.cur) {
		a.cur = make([]byte, slabSize)
		a.off = 0
		a.slabs = append(a.slabs, a.cur)
	}
	dst := a.cur[a.off : a.off+len(b) : a.off+len(b)]
	a.off += len(b)
	copy(dst, b)
	return dst
}

// Release drops every allocation at once. The arena must not be used after.
func (a *Arena) Release() {
	a.slabs = nil
	a.cur = nil
	a.off = 0
	a.released = true
}

// Released reports whether the arena's scope has ended.
func (a *Arena) Released() bool {
	return a.released
}

// Bytes returns the total payload bytes copied into the arena.
func (a *Arena) Bytes() int64 {
	return a.bytes
}

// Allocs returns the number of Copy calls served.
func (a *Arena) Allocs() int64 {
	return a.allocs
}

// Scope returns the diagnostic scope label.
func (a *Arena) Scope() string {
	return a.scope
}
