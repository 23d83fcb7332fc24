// ABOUTME: Lock-free single-producer/single-consumer sample queue
// ABOUTME: Fixed-capacity ring with atomic cursors and a space-available signal
package ringbuf

import (
	"fmt"
	"sync/atomic"
)

// Queue is a fixed-capacity FIFO of samples shared by exactly one producer
// and one consumer goroutine.
//
// The read and write cursors only ever grow; slot positions are cursor
// modulo capacity. The producer owns the write cursor and the consumer owns
// the read cursor, so neither side ever stores to the other's cursor.
type Queue[T any] struct {
	buf   []T
	size  uint64
	read  atomic.Uint64
	write atomic.Uint64

	space     chan struct{}
	underruns atomic.Uint64
}

// New creates a queue holding up to capacity samples
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ringbuf: invalid capacity %d", capacity))
	}
	return &Queue[T]{
		buf:   make([]T, capacity),
		size:  uint64(capacity),
		space: make(chan struct{}, 1),
	}
}

// Cap returns the fixed capacity
func (q *Queue[T]) Cap() int {
	return int(q.size)
}

// Len returns the number of unread samples
func (q *Queue[T]) Len() int {
	w := q.write.Load()
	r := q.read.Load()
	return int(w - r)
}

// Free returns the number of slots the producer may fill.
// Concurrent pops can only make the true value larger, so the result never
// overstates the space available.
func (q *Queue[T]) Free() int {
	return int(q.size - (q.write.Load() - q.read.Load()))
}

// PushMany appends every sample in src. Producer only.
// Pushing more than Free() samples would overwrite unread audio and panics.
func (q *Queue[T]) PushMany(src []T) {
	if len(src) == 0 {
		return
	}

	w := q.write.Load()
	r := q.read.Load()
	if uint64(len(src)) > q.size-(w-r) {
		panic(fmt.Sprintf("ringbuf: push of %d samples exceeds free space %d", len(src), q.size-(w-r)))
	}

	start := int(w % q.size)
	n := copy(q.buf[start:], src)
	copy(q.buf, src[n:])

	// Publish after the slots are written
	q.write.Store(w + uint64(len(src)))
}

// PopOne removes the oldest sample. Consumer only; never blocks.
func (q *Queue[T]) PopOne() (T, bool) {
	r := q.read.Load()
	if r == q.write.Load() {
		var zero T
		return zero, false
	}

	v := q.buf[r%q.size]
	q.read.Store(r + 1)
	return v, true
}

// Signal wakes a producer waiting on SpaceAvailable. Consumer side;
// never blocks.
func (q *Queue[T]) Signal() {
	select {
	case q.space <- struct{}{}:
	default:
	}
}

// SpaceAvailable delivers a value after the consumer has freed slots
func (q *Queue[T]) SpaceAvailable() <-chan struct{} {
	return q.space
}

// MarkUnderrun records n samples the consumer could not serve
func (q *Queue[T]) MarkUnderrun(n int) {
	q.underruns.Add(uint64(n))
}

// Underruns returns the total number of underrun samples
func (q *Queue[T]) Underruns() uint64 {
	return q.underruns.Load()
}
