// Package audio owns the output side of the instrument: a lock-free event
// queue, the beep streamer that drains it and renders a synth backend, and
// the speaker lifecycle with stall detection and reconnect.
package audio

import (
	"sync/atomic"
)

const defaultQueueCapacity = 1024

// Queue is a bounded single-producer single-consumer queue. Push and Pop
// are wait-free and allocation-free, which makes the queue safe to drain
// from the render callback. One goroutine pushes, one pops; neither side
// may be shared.
type Queue[T any] struct {
	buf  []T
	mask uint64
	head atomic.Uint64 // next slot to pop
	tail atomic.Uint64 // next slot to push
}

// NewQueue makes a queue with at least the given capacity, rounded up to a
// power of two. capacity <= 0 selects the default of 1024.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Queue[T]{buf: make([]T, size), mask: uint64(size - 1)}
}

// Push appends v and reports whether there was room. Producer side only.
func (q *Queue[T]) Push(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest element. Consumer side only.
func (q *Queue[T]) Pop() (T, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		var zero T
		return zero, false
	}
	v := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return v, true
}

// Len is the number of queued elements. Exact for either endpoint, a
// snapshot for anyone else.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap is the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}
