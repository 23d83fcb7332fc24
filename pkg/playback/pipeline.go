// ABOUTME: Decode-and-queue producer loop
// ABOUTME: Reads packets, decodes and resamples frames, and blocks while the queue is full
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/resample"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/ringbuf"
)

// ErrFrameTooLarge is returned when a converted frame can never fit in the
// sample queue, even when it is empty
var ErrFrameTooLarge = errors.New("frame larger than sample queue")

// DefaultPollInterval bounds how long the producer sleeps between space checks
const DefaultPollInterval = 10 * time.Millisecond

// Pipeline is the producer side of playback. It runs on its own goroutine
// and is the only writer of its queue.
type Pipeline[T audio.Sample] struct {
	input  decode.Input
	stream int
	dec    decode.Decoder
	stage  *resample.Stage
	queue  *ringbuf.Queue[T]
	poll   time.Duration

	pkt     decode.Packet
	frame   audio.Frame
	scratch []T

	queued atomic.Uint64
	frames atomic.Uint64
	waits  atomic.Uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewPipeline wires a decoder for stream of input to queue through stage
func NewPipeline[T audio.Sample](input decode.Input, stream int, dec decode.Decoder, stage *resample.Stage, queue *ringbuf.Queue[T]) *Pipeline[T] {
	return &Pipeline[T]{
		input:   input,
		stream:  stream,
		dec:     dec,
		stage:   stage,
		queue:   queue,
		poll:    DefaultPollInterval,
		scratch: make([]T, 0, queue.Cap()),
		ready:   make(chan struct{}),
	}
}

// SetPollInterval changes the fallback wake-up period used while waiting
// for queue space
func (p *Pipeline[T]) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.poll = d
	}
}

// Run decodes the whole input into the queue. It returns nil once every
// sample, including the resampler tail, has been enqueued. Cancelling ctx
// stops the loop at the next wait.
func (p *Pipeline[T]) Run(ctx context.Context) error {
	defer p.markReady()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.input.ReadPacket(&p.pkt)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}

		if p.pkt.StreamIndex != p.stream {
			continue
		}

		if err := p.decodePacket(ctx, &p.pkt); err != nil {
			return err
		}
	}

	// Drain frames the decoder is still holding
	if err := p.decodePacket(ctx, nil); err != nil {
		return err
	}

	tail, err := p.stage.Flush()
	if err != nil {
		return fmt.Errorf("failed to flush resampler: %w", err)
	}
	return p.enqueue(ctx, tail)
}

// Ready is closed once the first samples are queued or Run has returned
func (p *Pipeline[T]) Ready() <-chan struct{} {
	return p.ready
}

// Queued returns the number of samples pushed so far
func (p *Pipeline[T]) Queued() uint64 {
	return p.queued.Load()
}

// Frames returns the number of decoded frames
func (p *Pipeline[T]) Frames() uint64 {
	return p.frames.Load()
}

// Waits returns how many times the producer blocked on a full queue
func (p *Pipeline[T]) Waits() uint64 {
	return p.waits.Load()
}

func (p *Pipeline[T]) markReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

// decodePacket submits pkt, or starts draining when pkt is nil, and
// forwards every frame the decoder produces
func (p *Pipeline[T]) decodePacket(ctx context.Context, pkt *decode.Packet) error {
	for {
		err := p.dec.SendPacket(pkt)
		if err == nil {
			break
		}
		if errors.Is(err, decode.ErrAgain) {
			// Decoder is full; take its frames and resend
			n, err := p.receiveFrames(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("decoder rejected packet without producing frames")
			}
			continue
		}
		if err == io.EOF && pkt == nil {
			return nil
		}
		return fmt.Errorf("failed to send packet: %w", err)
	}

	_, err := p.receiveFrames(ctx)
	return err
}

// receiveFrames forwards frames until the decoder needs input or is drained
func (p *Pipeline[T]) receiveFrames(ctx context.Context) (int, error) {
	n := 0
	for {
		err := p.dec.ReceiveFrame(&p.frame)
		if errors.Is(err, decode.ErrAgain) || err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("failed to decode frame: %w", err)
		}
		n++
		p.frames.Add(1)

		out, err := p.stage.Convert(&p.frame)
		if err != nil {
			return n, fmt.Errorf("failed to resample frame: %w", err)
		}
		if err := p.enqueue(ctx, out); err != nil {
			return n, err
		}
	}
}

// enqueue pushes every sample of f, waiting until the queue can take the
// whole frame at once
func (p *Pipeline[T]) enqueue(ctx context.Context, f *audio.Frame) error {
	if f.Samples == 0 {
		return nil
	}

	view := audio.Packed[T](f)
	n := view.Len()
	if n > p.queue.Cap() {
		return fmt.Errorf("%w: %d samples, capacity %d", ErrFrameTooLarge, n, p.queue.Cap())
	}

	if err := p.waitForSpace(ctx, n); err != nil {
		return err
	}

	p.scratch = view.AppendTo(p.scratch[:0])
	p.queue.PushMany(p.scratch)
	p.queued.Add(uint64(n))
	p.markReady()
	return nil
}

func (p *Pipeline[T]) waitForSpace(ctx context.Context, n int) error {
	if p.queue.Free() >= n {
		return nil
	}
	p.waits.Add(1)

	// The consumer signals after every callback; the ticker covers a
	// signal that was consumed before this wait began
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for p.queue.Free() < n {
		select {
		case <-p.queue.SpaceAvailable():
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
