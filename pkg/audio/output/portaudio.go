//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Hands typed PortAudio buffers straight to the stream's sample filler
package output

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	initialized bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Name identifies the backend
func (p *PortAudio) Name() string {
	return "portaudio"
}

// OpenStream opens the default output stream. Renderers that can fill
// typed buffers directly skip the byte encoding step.
func (p *PortAudio) OpenStream(cfg StreamConfig, r Renderer) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var callback any
	switch cfg.Kind {
	case KindF32:
		if f, ok := r.(interface{ Fill([]float32) }); ok {
			callback = f.Fill
		} else {
			return nil, fmt.Errorf("renderer cannot fill float32 buffers")
		}
	case KindI16:
		if f, ok := r.(interface{ Fill([]int16) }); ok {
			callback = f.Fill
		} else {
			return nil, fmt.Errorf("renderer cannot fill int16 buffers")
		}
	}

	if !p.initialized {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		p.initialized = true
	}

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.PeriodFrames, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	log.Printf("Audio output initialized: %s (portaudio)", cfg)
	return &portAudioStream{stream: stream}, nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
}

func (s *portAudioStream) Start() error {
	return s.stream.Start()
}

func (s *portAudioStream) Close() error {
	return stopAndClose(s.stream.Stop, s.stream.Close)
}
