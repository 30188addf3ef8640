// Package arena provides a bump allocator for decode and compression scratch
// buffers.
//
// Allocations are never freed individually. The whole arena is released by
// Reset or by dropping it. An optional byte budget turns oversized requests
// into texerr.OutOfMemory instead of letting a hostile header trigger a huge
// allocation.
package arena

import (
	"sync"

	"github.com/jpfielding/texkit.go/pkg/texerr"
)

const defaultChunk = 64 << 10

// Arena hands out byte slices carved from larger chunks. The zero value is
// ready to use and has no budget. Arena is safe for concurrent use.
type Arena struct {
	// Limit caps the total bytes handed out; 0 means unlimited.
	Limit int

	mu     sync.Mutex
	chunk  []byte
	used   int
	chunks int
}

// New returns an arena capped at limit bytes (0 for unlimited).
func New(limit int) *Arena {
	return &Arena{Limit: limit}
}

// Alloc returns a zeroed slice of n bytes. A nil arena falls back to make.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, texerr.Errorf(texerr.InvalidParam, "arena.Alloc", "negative size %d", n)
	}
	if a == nil {
		return make([]byte, n), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Limit > 0 && a.used+n > a.Limit {
		return nil, texerr.Errorf(texerr.OutOfMemory, "arena.Alloc", "%d bytes requested, %d of %d in use", n, a.used, a.Limit)
	}
	a.used += n

	// Large requests get their own backing array.
	if n > defaultChunk/4 {
		a.chunks++
		return make([]byte, n), nil
	}
	if len(a.chunk) < n {
		a.chunk = make([]byte, defaultChunk)
		a.chunks++
	}
	b := a.chunk[:n:n]
	a.chunk = a.chunk[n:]
	return b, nil
}

// Used reports the bytes handed out since the last Reset.
func (a *Arena) Used() int {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Reset forgets every allocation. Slices handed out earlier stay valid but
// no longer count against the budget.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.chunk = nil
	a.used = 0
	a.chunks = 0
	a.mu.Unlock()
}
