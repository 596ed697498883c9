// Package broker provides a fixed-capacity registry of open requests that
// any number of posters advertise and exactly one taker claims.
//
// Claiming is Remove: whoever removes an id first owns the payload. The
// simulation is single-threaded, so "first" is simply iteration order within
// a tick and no locking is needed.
package broker

import (
	"errors"
	"fmt"
	"iter"
)

// ID identifies one advertised request. IDs increase monotonically and are
// never reused, so a stale ID never aliases a newer request.
type ID uint32

// ErrFull matches any *FullError via errors.Is.
var ErrFull = errors.New("broker full")

// ErrDuplicateID is returned by Restore when the id is already present.
var ErrDuplicateID = errors.New("broker: duplicate id")

// FullError hands a rejected payload back to the caller.
type FullError[T any] struct {
	Rejected T
	Cap      int
}

func (e *FullError[T]) Error() string {
	return fmt.Sprintf("broker full (%d entries)", e.Cap)
}

// Is makes errors.Is(err, ErrFull) true.
func (e *FullError[T]) Is(target error) bool {
	return target == ErrFull
}

type entry[T any] struct {
	id    ID
	value T
}

// Broker holds at most Cap requests in an unordered table.
type Broker[T any] struct {
	entries []entry[T]
	next    ID
}

// New creates a broker with room for capacity entries. The table never grows.
func New[T any](capacity int) *Broker[T] {
	return &Broker[T]{entries: make([]entry[T], 0, capacity)}
}

// Notify advertises v. When the table is full v comes back in a *FullError.
func (b *Broker[T]) Notify(v T) (ID, error) {
	if len(b.entries) == cap(b.entries) {
		return 0, &FullError[T]{Rejected: v, Cap: cap(b.entries)}
	}
	id := b.next
	b.next++
	b.entries = append(b.entries, entry[T]{id: id, value: v})
	return id, nil
}

// Check reports whether id is still advertised.
func (b *Broker[T]) Check(id ID) bool {
	return b.index(id) >= 0
}

// Get returns a pointer to the payload for in-place edits. The pointer is
// valid until the next Remove or Notify.
func (b *Broker[T]) Get(id ID) (*T, bool) {
	i := b.index(id)
	if i < 0 {
		return nil, false
	}
	return &b.entries[i].value, true
}

// Remove claims id, returning its payload. The last entry takes the freed
// slot, so iteration order changes.
func (b *Broker[T]) Remove(id ID) (T, bool) {
	i := b.index(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	v := b.entries[i].value
	last := len(b.entries) - 1
	b.entries[i] = b.entries[last]
	b.entries[last] = entry[T]{}
	b.entries = b.entries[:last]
	return v, true
}

// All iterates the advertised requests in table order.
func (b *Broker[T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for _, e := range b.entries {
			if !yield(e.id, e.value) {
				return
			}
		}
	}
}

// Len returns the number of advertised requests.
func (b *Broker[T]) Len() int { return len(b.entries) }

// Cap returns the table capacity.
func (b *Broker[T]) Cap() int { return cap(b.entries) }

// NextID returns the id the next Notify will assign.
func (b *Broker[T]) NextID() ID { return b.next }

// SetNextID moves the id counter forward. It never moves it backwards.
func (b *Broker[T]) SetNextID(id ID) {
	if id > b.next {
		b.next = id
	}
}

// Restore reinserts a persisted entry under its original id.
func (b *Broker[T]) Restore(id ID, v T) error {
	if b.index(id) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if len(b.entries) == cap(b.entries) {
		return &FullError[T]{Rejected: v, Cap: cap(b.entries)}
	}
	b.entries = append(b.entries, entry[T]{id: id, value: v})
	b.SetNextID(id + 1)
	return nil
}

func (b *Broker[T]) index(id ID) int {
	for i := range b.entries {
		if b.entries[i].id == id {
			return i
		}
	}
	return -1
}
