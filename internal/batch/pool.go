package batch

import "sync"

// Pool is a bounded free list guarded by a single mutex. Pop order is LIFO
// (most recently returned value is reused first). Put on a full pool drops
// the value so the pool never grows past its bound.
type Pool[T any] struct {
	mu    sync.Mutex
	items []T
	max   int
}

// NewPool creates a pool holding at most max values.
func NewPool[T any](max int) *Pool[T] {
	if max <= 0 {
		max = 1
	}
	return &Pool[T]{items: make([]T, 0, max), max: max}
}

// Get pops the most recently stored value. The second return is false when
// the pool is empty.
func (p *Pool[T]) Get() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		var zero T
		return zero, false
	}
	last := len(p.items) - 1
	v := p.items[last]
	var zero T
	p.items[last] = zero
	p.items = p.items[:last]
	return v, true
}

// Put stores a value for reuse. Returns false when the pool is full and the
// value was dropped.
func (p *Pool[T]) Put(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) >= p.max {
		return false
	}
	p.items = append(p.items, v)
	return true
}

// Len reports the number of pooled values.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
