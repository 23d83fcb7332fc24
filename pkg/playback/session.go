// ABOUTME: Playback session for one media file
// ABOUTME: Opens input, decoder, resampler, queue and device stream, then runs them
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/resample"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/ringbuf"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQueueSamples  = 8192
	DefaultPeriodFrames  = 512
	DefaultDrainTimeout  = 2 * time.Second
	DefaultStatsInterval = 5 * time.Second

	frameSlack = 64
)

// SessionConfig holds session configuration
type SessionConfig struct {
	Path   string
	Device output.Device

	Kind         output.SampleKind
	Channels     int // 0 keeps the source channel count
	SampleRate   int // 0 keeps the source rate
	PeriodFrames int

	QueueSamples  int
	Quality       resample.Quality
	PollInterval  time.Duration
	DrainTimeout  time.Duration
	StatsInterval time.Duration

	// OnStats, if set, is called from the stats reporter goroutine
	OnStats func(Stats)
}

func (c *SessionConfig) applyDefaults() {
	if c.QueueSamples == 0 {
		c.QueueSamples = DefaultQueueSamples
	}
	if c.PeriodFrames == 0 {
		c.PeriodFrames = DefaultPeriodFrames
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.StatsInterval == 0 {
		c.StatsInterval = DefaultStatsInterval
	}
}

// engine is the sample-type specific half of a session
type engine interface {
	run(ctx context.Context) error
	ready() <-chan struct{}
	renderer() output.Renderer
	counters() counters
}

type counters struct {
	queued    uint64
	played    uint64
	underruns uint64
	frames    uint64
	waits     uint64
	depth     int
	capacity  int
}

type typedEngine[T audio.Sample] struct {
	queue    *ringbuf.Queue[T]
	pipeline *Pipeline[T]
	callback *Callback[T]
}

func newEngine[T audio.Sample](in decode.Input, stream int, dec decode.Decoder, stage *resample.Stage, cfg SessionConfig) *typedEngine[T] {
	q := ringbuf.New[T](cfg.QueueSamples)
	p := NewPipeline(in, stream, dec, stage, q)
	p.SetPollInterval(cfg.PollInterval)
	return &typedEngine[T]{
		queue:    q,
		pipeline: p,
		callback: NewCallback(q),
	}
}

func (e *typedEngine[T]) run(ctx context.Context) error { return e.pipeline.Run(ctx) }

func (e *typedEngine[T]) ready() <-chan struct{} { return e.pipeline.Ready() }

func (e *typedEngine[T]) renderer() output.Renderer { return e.callback }

func (e *typedEngine[T]) counters() counters {
	return counters{
		queued:    e.pipeline.Queued(),
		played:    e.callback.Played(),
		underruns: e.queue.Underruns(),
		frames:    e.pipeline.Frames(),
		waits:     e.pipeline.Waits(),
		depth:     e.queue.Len(),
		capacity:  e.queue.Cap(),
	}
}

// Session plays one file on one device
type Session struct {
	id     string
	config SessionConfig

	input   decode.Input
	stream  decode.Stream
	decoder decode.Decoder
	stage   *resample.Stage
	engine  engine
}

// NewSession opens the file and prepares every stage of playback. The
// device sample kind is checked before anything is opened.
func NewSession(cfg SessionConfig) (*Session, error) {
	cfg.applyDefaults()

	decode.Init()

	sampleFormat, err := cfg.Kind.EngineFormat()
	if err != nil {
		return nil, fmt.Errorf("device format: %w", err)
	}
	if cfg.Device == nil {
		return nil, fmt.Errorf("no output device")
	}
	if cfg.QueueSamples < 0 || cfg.PeriodFrames < 0 {
		return nil, fmt.Errorf("invalid buffer config: queue %d samples, period %d frames", cfg.QueueSamples, cfg.PeriodFrames)
	}

	s := &Session{
		id:     uuid.New().String(),
		config: cfg,
	}

	if err := s.open(sampleFormat); err != nil {
		s.Close()
		return nil, err
	}

	log.Printf("Session %s: %s [%s %s] -> %s via %s",
		s.id, cfg.Path, s.stream.Codec, s.stage.Source(), s.stage.Target(), cfg.Device.Name())
	return s, nil
}

func (s *Session) open(sampleFormat audio.SampleFormat) error {
	cfg := s.config

	in, err := decode.Open(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	s.input = in

	stream, err := decode.FindBestStream(in)
	if err != nil {
		return fmt.Errorf("failed to select stream: %w", err)
	}
	s.stream = stream

	dec, err := decode.NewDecoder(stream)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	s.decoder = dec

	src := dec.Format()
	target := audio.Format{
		Sample:     sampleFormat,
		Layout:     src.Layout,
		SampleRate: cfg.SampleRate,
	}
	if cfg.Channels != 0 && cfg.Channels != src.Channels() {
		target.Layout = audio.DefaultLayout(cfg.Channels)
	}
	if target.SampleRate == 0 {
		target.SampleRate = src.SampleRate
	}

	stage, err := resample.New(src, target, resample.Options{Quality: cfg.Quality})
	if err != nil {
		return fmt.Errorf("failed to create resampler: %w", err)
	}
	s.stage = stage

	// Largest frame the stage can emit from one decoded frame, with room for
	// samples a rate converter carries over between calls
	perChannel := (decode.MaxFrameSamples*target.SampleRate+src.SampleRate-1)/src.SampleRate + frameSlack
	if need := perChannel * target.Channels(); need > cfg.QueueSamples {
		return fmt.Errorf("%w: frames of up to %d samples, queue holds %d (raise the buffer size)", ErrFrameTooLarge, need, cfg.QueueSamples)
	}

	switch sampleFormat.Type {
	case audio.SampleS16:
		s.engine = newEngine[int16](in, stream.Index, dec, stage, cfg)
	case audio.SampleF32:
		s.engine = newEngine[float32](in, stream.Index, dec, stage, cfg)
	default:
		return fmt.Errorf("%w: %s", output.ErrUnsupportedSampleKind, sampleFormat)
	}
	return nil
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// Stream returns the stream being played
func (s *Session) Stream() decode.Stream {
	return s.stream
}

// Target returns the format delivered to the device
func (s *Session) Target() audio.Format {
	return s.stage.Target()
}

// Run plays the file to the end. It returns when every queued sample has
// been handed to the device, the drain timeout expires, or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	target := s.stage.Target()
	cfg := output.StreamConfig{
		Kind:         s.config.Kind,
		Channels:     target.Channels(),
		SampleRate:   target.SampleRate,
		PeriodFrames: s.config.PeriodFrames,
	}

	stream, err := s.config.Device.OpenStream(cfg, s.engine.renderer())
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			stream.Close()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	decoded := make(chan struct{})

	g.Go(func() error {
		defer close(decoded)
		return s.engine.run(gctx)
	})

	// Start the device once there is audio to play
	g.Go(func() error {
		select {
		case <-s.engine.ready():
		case <-gctx.Done():
			return nil
		}
		if gctx.Err() != nil {
			return nil
		}
		if err := stream.Start(); err != nil {
			return fmt.Errorf("failed to start output stream: %w", err)
		}
		log.Printf("Session %s: playback started", s.id)
		return nil
	})

	g.Go(func() error {
		s.report(gctx, decoded)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			log.Printf("Session %s: stopped", s.id)
			return nil
		}
		return err
	}

	s.drain(ctx, stream)

	// Stop the device before the final snapshot so no callback is in flight
	closed = true
	if err := stream.Close(); err != nil {
		log.Printf("Session %s: failed to close output stream: %v", s.id, err)
	}

	st := s.Stats()
	log.Printf("Session %s: finished, %d samples played, %d underrun samples", s.id, st.Played, st.Underruns)
	if s.config.OnStats != nil {
		s.config.OnStats(st)
	}
	return nil
}

// drain waits for the device to consume what is left in the queue, then
// for any audio the stream still buffers on its own
func (s *Session) drain(ctx context.Context, stream output.Stream) {
	if s.engine.counters().queued == 0 {
		return
	}

	deadline := time.NewTimer(s.config.DrainTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for s.engine.counters().depth > 0 {
		select {
		case <-ticker.C:
		case <-deadline.C:
			log.Printf("Session %s: drain timed out with %d samples queued", s.id, s.engine.counters().depth)
			return
		case <-ctx.Done():
			return
		}
	}

	d, ok := stream.(output.Drainer)
	if !ok {
		return
	}
	pending := d.Pending()
	if pending <= 0 {
		return
	}

	tail := time.NewTimer(pending)
	defer tail.Stop()
	select {
	case <-tail.C:
	case <-deadline.C:
		log.Printf("Session %s: drain timed out with %v of audio buffered by the device", s.id, pending)
	case <-ctx.Done():
	}
}

// report publishes stats periodically and logs new underruns
func (s *Session) report(ctx context.Context, decoded <-chan struct{}) {
	ticker := time.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	var lastUnderruns uint64
	for {
		select {
		case <-ticker.C:
			st := s.Stats()
			if st.Underruns > lastUnderruns {
				log.Printf("Session %s: %d underrun samples (%d new)", s.id, st.Underruns, st.Underruns-lastUnderruns)
				lastUnderruns = st.Underruns
			}
			if s.config.OnStats != nil {
				s.config.OnStats(st)
			}
		case <-decoded:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stats returns a snapshot of playback counters. Safe to call from any
// goroutine.
func (s *Session) Stats() Stats {
	c := s.engine.counters()
	target := s.stage.Target()

	return Stats{
		SessionID:     s.id,
		Path:          s.config.Path,
		Codec:         s.stream.Codec,
		Source:        s.stage.Source(),
		Target:        target,
		Queued:        c.queued,
		Played:        c.played,
		Underruns:     c.underruns,
		Frames:        c.frames,
		Waits:         c.waits,
		QueueDepth:    c.depth,
		QueueCapacity: c.capacity,
		Elapsed:       samplesToDuration(c.played, target),
		Duration:      samplesToDuration(uint64(max(s.stream.Duration, 0))*uint64(s.stream.Format.Channels()), s.stream.Format),
	}
}

// Close releases the decoder and input
func (s *Session) Close() error {
	var errs []error
	if s.decoder != nil {
		errs = append(errs, s.decoder.Close())
	}
	if s.input != nil {
		errs = append(errs, s.input.Close())
	}
	return errors.Join(errs...)
}
