// Package ring provides the bounded buffer shared by the live views.
//
// Eviction policy: a Ring holds at most Cap items. Push stores the new item
// as the newest and, once the ring is full, overwrites the oldest one. Items
// never reorder; readers get either newest-first or oldest-first copies.
package ring

import "sync"

// Ring is a fixed-capacity, insertion-ordered buffer safe for concurrent use.
type Ring[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // index of the next write
	size  int
}

// New creates a ring holding at most capacity items. capacity < 1 is
// treated as 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Cap returns the ring capacity
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Len returns the number of stored items
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Push appends item as the newest entry. It reports whether an older entry
// was evicted to make room.
func (r *Ring[T]) Push(item T) (evicted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushLocked(item)
}

func (r *Ring[T]) pushLocked(item T) bool {
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	if r.size == len(r.items) {
		return true
	}
	r.size++
	return false
}

// Replace discards the contents and loads items, given newest-first. Only
// the first Cap items are kept.
func (r *Ring[T]) Replace(newestFirst []T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.size = 0, 0

	n := len(newestFirst)
	if n > len(r.items) {
		n = len(r.items)
	}
	for i := n - 1; i >= 0; i-- {
		r.pushLocked(newestFirst[i])
	}
}

// Newest returns a copy of the contents, newest first
func (r *Ring[T]) Newest() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - 1 - i + 2*len(r.items)) % len(r.items)
		out[i] = r.items[idx]
	}
	return out
}

// Oldest returns a copy of the contents, oldest first
func (r *Ring[T]) Oldest() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	start := (r.head - r.size + len(r.items)) % len(r.items)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Clear removes all items
func (r *Ring[T]) Clear() {
	r.Replace(nil)
}
