// ABOUTME: Virtual audio output driven by a ticker
// ABOUTME: Calls the Renderer at the stream's period without any sound hardware
package output

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Virtual is a device with no hardware behind it. Each stream runs a
// goroutine that renders one period per tick, like a sound card clock.
type Virtual struct {
	// Interval overrides the tick period; zero paces at the real rate
	Interval time.Duration

	// OnRender, if set, receives every rendered buffer on the device goroutine
	OnRender func(buf []byte)

	periods atomic.Uint64
}

// DefaultVirtualPeriod is the period used when a stream does not set one
const DefaultVirtualPeriod = 512

// NewVirtual creates a virtual device
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Name identifies the backend
func (v *Virtual) Name() string {
	return "null"
}

// Periods returns how many buffers have been rendered across all streams
func (v *Virtual) Periods() uint64 {
	return v.periods.Load()
}

// OpenStream prepares a ticker-driven stream
func (v *Virtual) OpenStream(cfg StreamConfig, r Renderer) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	period := cfg.PeriodFrames
	if period == 0 {
		period = DefaultVirtualPeriod
	}

	interval := v.Interval
	if interval == 0 {
		interval = time.Duration(period) * time.Second / time.Duration(cfg.SampleRate)
	}

	log.Printf("Audio output initialized: %s (virtual, %d frames every %v)", cfg, period, interval)

	return &virtualStream{
		device:   v,
		renderer: r,
		buf:      make([]byte, period*cfg.FrameSize()),
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Close releases resources
func (v *Virtual) Close() error {
	return nil
}

type virtualStream struct {
	device   *Virtual
	renderer Renderer
	buf      []byte
	interval time.Duration

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func (s *virtualStream) Start() error {
	select {
	case <-s.done:
		return fmt.Errorf("stream closed")
	default:
	}

	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run()
	})
	return nil
}

func (s *virtualStream) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.renderer.Render(s.buf)
			s.device.periods.Add(1)
			if s.device.OnRender != nil {
				s.device.OnRender(s.buf)
			}
		}
	}
}

// Close stops the clock and waits for the last render to finish
func (s *virtualStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}
