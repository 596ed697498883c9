// Package arena provides a bump allocator for per-tick scratch memory.
// All memory is reserved up front; allocations move a cursor and are released
// together by resetting it, so a running simulation never grows the heap for
// its scratch buffers.
package arena

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned when an allocation does not fit in the remaining space.
var ErrExhausted = errors.New("arena exhausted")

// Arena hands out zeroed []uint32 slices from one fixed backing buffer.
// An Arena is not safe for concurrent use.
type Arena struct {
	name string
	buf  []uint32
	off  int
	peak int // High-water mark since creation, in words.
}

// New reserves an arena of the given size in 32-bit words.
func New(name string, words int) *Arena {
	return &Arena{name: name, buf: make([]uint32, words)}
}

// Alloc returns n zeroed words. The slice stays valid until the arena (or the
// scope it was allocated in) is reset.
func (a *Arena) Alloc(n int) ([]uint32, error) {
	if n < 0 {
		panic("arena: negative allocation")
	}
	if a.off+n > len(a.buf) {
		return nil, fmt.Errorf("%s: need %d words, %d free: %w", a.name, n, len(a.buf)-a.off, ErrExhausted)
	}
	s := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	if a.off > a.peak {
		a.peak = a.off
	}
	clear(s)
	return s, nil
}

// Sub carves a nested arena of the given size out of a. The child owns its
// words until a is reset; resetting the child only rewinds the child.
func (a *Arena) Sub(name string, words int) (*Arena, error) {
	buf, err := a.Alloc(words)
	if err != nil {
		return nil, err
	}
	return &Arena{name: name, buf: buf}, nil
}

// Mark is a saved cursor position, used to open a scope.
type Mark int

// Mark records the current cursor.
func (a *Arena) Mark() Mark {
	return Mark(a.off)
}

// Release rewinds the cursor to m, freeing everything allocated after it.
func (a *Arena) Release(m Mark) {
	if int(m) > a.off {
		panic("arena: release past cursor")
	}
	a.off = int(m)
}

// Reset frees every allocation.
func (a *Arena) Reset() {
	a.off = 0
}

// Used returns the words currently allocated.
func (a *Arena) Used() int { return a.off }

// Cap returns the total words reserved.
func (a *Arena) Cap() int { return len(a.buf) }

// Peak returns the highest cursor position ever reached.
func (a *Arena) Peak() int { return a.peak }

// Name returns the label given at creation.
func (a *Arena) Name() string { return a.name }
