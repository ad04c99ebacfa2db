// Package arena implements the context-owned buffer arena spec §5 and
// §9 describe: a single growable byte slab that hands out
// non-overlapping regions by bumping an offset, never freeing
// individual reservations mid-frame. Callers address their data by the
// Handle returned from Reserve, not by raw pointer, so growth (which
// reallocates the backing slice) can't leave a caller holding invalid
// memory silently — Bytes(handle) always re-derives the slice from the
// current backing array.
package arena

import "fmt"

// Handle addresses a previously reserved region. Zero value is invalid.
type Handle struct {
	offset int
	length int
}

// Valid reports whether h refers to a non-empty reservation.
func (h Handle) Valid() bool { return h.length > 0 }

// Len returns the reserved region's length in bytes.
func (h Handle) Len() int { return h.length }

// Arena is a bump-pointer byte allocator. The zero value is usable.
//
// Shared-resource policy (spec §5): one Arena per context, strategies
// reserve everything they need up front, and nothing is freed until
// Reset or the owning context is destroyed.
type Arena struct {
	buf    []byte
	offset int
}

// New creates an Arena with capHint bytes pre-allocated.
func New(capHint int) *Arena {
	if capHint < 0 {
		capHint = 0
	}
	return &Arena{buf: make([]byte, 0, capHint)}
}

// Reserve bumps the arena's offset by n bytes and returns a Handle to
// the new region. Growing the backing slice invalidates no outstanding
// Handle: Bytes always reads through the current buffer.
func (a *Arena) Reserve(n int) Handle {
	if n < 0 {
		panic(fmt.Sprintf("arena: negative reservation %d", n))
	}
	h := Handle{offset: a.offset, length: n}
	need := a.offset + n
	if need > cap(a.buf) {
		grown := make([]byte, need, growCap(cap(a.buf), need))
		copy(grown, a.buf)
		a.buf = grown
	} else if need > len(a.buf) {
		a.buf = a.buf[:need]
	}
	a.offset = need
	return h
}

// Resize grows an existing reservation to n bytes in place if it is the
// most recently reserved region (the common case: a strategy sizing a
// buffer up after learning the real pixel count), otherwise it makes a
// fresh reservation and the old region's bytes become unreachable
// garbage the arena still owns until Reset.
func (a *Arena) Resize(h Handle, n int) Handle {
	if n < 0 {
		panic(fmt.Sprintf("arena: negative resize %d", n))
	}
	if h.offset+h.length == a.offset {
		// h is the last reservation: grow or shrink it in place.
		a.offset = h.offset
		return a.Reserve(n)
	}
	return a.Reserve(n)
}

// Bytes returns the region h addresses, re-sliced from the current
// backing array.
func (a *Arena) Bytes(h Handle) []byte {
	return a.buf[h.offset : h.offset+h.length]
}

// Used returns the number of bytes currently reserved.
func (a *Arena) Used() int { return a.offset }

// Cap returns the arena's current backing capacity.
func (a *Arena) Cap() int { return cap(a.buf) }

// Reset releases every reservation, keeping the backing array for
// reuse on the next frame. Per spec §9, this is the only way buffers
// are freed — never mid-frame.
func (a *Arena) Reset() {
	a.offset = 0
	a.buf = a.buf[:0]
}

func growCap(have, need int) int {
	if have == 0 {
		have = 64
	}
	for have < need {
		have *= 2
	}
	return have
}
