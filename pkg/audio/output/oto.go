// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds an oto player from a Renderer through a pull reader
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library.
// oto allows one context per process, so every stream shares its format.
type Oto struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	config StreamConfig
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// Name identifies the backend
func (o *Oto) Name() string {
	return "oto"
}

func otoFormat(kind SampleKind) (oto.Format, error) {
	switch kind {
	case KindI16:
		return oto.FormatSignedInt16LE, nil
	case KindF32:
		return oto.FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedSampleKind, kind)
	}
}

// OpenStream creates a player that pulls audio from r
func (o *Oto) OpenStream(cfg StreamConfig, r Renderer) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := otoFormat(cfg.Kind)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// oto cannot be reinitialized with another format
	if o.otoCtx != nil && o.config != cfg {
		return nil, fmt.Errorf("oto already initialized with %s, cannot open %s", o.config, cfg)
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       format,
		}
		if cfg.PeriodFrames > 0 {
			op.BufferSize = time.Duration(cfg.PeriodFrames) * time.Second / time.Duration(cfg.SampleRate)
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
		o.config = cfg
		log.Printf("Audio output initialized: %s (oto)", cfg)
	} else if err := o.otoCtx.Resume(); err != nil {
		return nil, fmt.Errorf("failed to resume oto context: %w", err)
	}

	return &otoStream{
		player: o.otoCtx.NewPlayer(&renderReader{r: r}),
		ctx:    o.otoCtx,
		config: cfg,
	}, nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	return nil
}

// renderReader adapts a Renderer to the io.Reader oto pulls from
type renderReader struct {
	r Renderer
}

func (rr *renderReader) Read(p []byte) (int, error) {
	rr.r.Render(p)
	return len(p), nil
}

type otoStream struct {
	player *oto.Player
	ctx    *oto.Context
	config StreamConfig
}

func (s *otoStream) Start() error {
	s.player.Play()
	return nil
}

// Pending reports the audio oto has pulled into its player buffer but not
// yet played. Close discards it.
func (s *otoStream) Pending() time.Duration {
	if !s.player.IsPlaying() {
		return 0
	}
	return s.config.BufferedDuration(s.player.BufferedSize())
}

func (s *otoStream) Close() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
