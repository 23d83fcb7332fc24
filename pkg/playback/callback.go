// ABOUTME: Device-facing playback callback
// ABOUTME: Drains the sample queue into device buffers and plays silence on underrun
package playback

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/encode"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/ringbuf"
)

// renderChunk is the scratch size, in samples, used by Render
const renderChunk = 4096

// Callback is the consumer side of the sample queue. Its methods run on
// the device thread: they never block, allocate, log or do I/O.
type Callback[T audio.Sample] struct {
	queue   *ringbuf.Queue[T]
	scratch []T
	played  atomic.Uint64
}

// NewCallback creates a callback draining q
func NewCallback[T audio.Sample](q *ringbuf.Queue[T]) *Callback[T] {
	return &Callback[T]{
		queue:   q,
		scratch: make([]T, renderChunk),
	}
}

// Fill writes one queued sample per slot of dst, or silence when the
// queue is empty
func (c *Callback[T]) Fill(dst []T) {
	missing := 0
	for i := range dst {
		v, ok := c.queue.PopOne()
		if !ok {
			missing++
		}
		dst[i] = v
	}

	c.played.Add(uint64(len(dst) - missing))
	if missing > 0 {
		c.queue.MarkUnderrun(missing)
	}
	c.queue.Signal()
}

// Render fills a byte buffer with little-endian samples for byte-oriented
// device backends
func (c *Callback[T]) Render(out []byte) {
	size := audio.SampleTypeOf[T]().Size()

	for len(out) >= size {
		n := min(len(out)/size, len(c.scratch))
		c.Fill(c.scratch[:n])
		out = out[encode.LittleEndian(out, c.scratch[:n]):]
	}

	// Trailing bytes that cannot hold a whole sample
	for i := range out {
		out[i] = 0
	}
}

// Played returns the number of queued samples delivered to the device
func (c *Callback[T]) Played() uint64 {
	return c.played.Load()
}
