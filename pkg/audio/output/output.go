// ABOUTME: Audio output device and stream interfaces
// ABOUTME: Maps device sample kinds to engine sample formats
package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

// ErrUnsupportedSampleKind is returned for device sample kinds the
// resampler cannot produce
var ErrUnsupportedSampleKind = errors.New("unsupported sample kind")

// SampleKind is a device-native sample encoding
type SampleKind int

const (
	KindI16 SampleKind = iota
	KindU16
	KindF32
)

func (k SampleKind) String() string {
	switch k {
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindF32:
		return "f32"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Size returns the bytes per sample
func (k SampleKind) Size() int {
	switch k {
	case KindI16, KindU16:
		return 2
	case KindF32:
		return 4
	default:
		return 0
	}
}

// ParseSampleKind parses a kind name such as "f32"
func ParseSampleKind(s string) (SampleKind, error) {
	switch strings.ToLower(s) {
	case "i16", "s16":
		return KindI16, nil
	case "u16":
		return KindU16, nil
	case "f32", "float":
		return KindF32, nil
	}
	return 0, fmt.Errorf("unknown sample kind %q (supported: i16, u16, f32)", s)
}

// EngineFormat returns the packed engine sample format for the kind.
// Unsigned 16-bit has no engine equivalent and is rejected.
func (k SampleKind) EngineFormat() (audio.SampleFormat, error) {
	switch k {
	case KindI16:
		return audio.FormatS16, nil
	case KindF32:
		return audio.FormatF32, nil
	default:
		return audio.SampleFormat{}, fmt.Errorf("%w: %s", ErrUnsupportedSampleKind, k)
	}
}

// StreamConfig describes the audio a device stream consumes
type StreamConfig struct {
	Kind         SampleKind
	Channels     int
	SampleRate   int
	PeriodFrames int // frames per callback, 0 for the backend default
}

// Validate checks that a stream can be opened with the config
func (c StreamConfig) Validate() error {
	if _, err := c.Kind.EngineFormat(); err != nil {
		return err
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.PeriodFrames < 0 {
		return fmt.Errorf("invalid period: %d frames", c.PeriodFrames)
	}
	return nil
}

// FrameSize returns the bytes in one interleaved sample frame
func (c StreamConfig) FrameSize() int {
	return c.Kind.Size() * c.Channels
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%s %dch %dHz", c.Kind, c.Channels, c.SampleRate)
}

// Renderer produces audio for a stream. Render runs on the device's own
// thread and must not block.
type Renderer interface {
	// Render fills out with interleaved little-endian samples
	Render(out []byte)
}

// Device is an audio output that can open playback streams
type Device interface {
	// Name identifies the backend
	Name() string

	// OpenStream prepares a stream that pulls audio from r
	OpenStream(cfg StreamConfig, r Renderer) (Stream, error)

	// Close releases device resources
	Close() error
}

// Stream is an open playback stream
type Stream interface {
	// Start begins invoking the renderer
	Start() error

	// Close stops playback and releases the stream
	Close() error
}

// Drainer is implemented by streams that keep rendered audio in their own
// buffer after the Renderer returns
type Drainer interface {
	// Pending returns how long the already rendered audio takes to play
	Pending() time.Duration
}

// BufferedDuration converts a byte count of interleaved audio to play time
func (c StreamConfig) BufferedDuration(bytes int) time.Duration {
	perSecond := c.SampleRate * c.FrameSize()
	if perSecond <= 0 || bytes <= 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(perSecond)
}

// stopAndClose stops a stream and always releases it, even when stopping
// fails because the stream never started
func stopAndClose(stop, release func() error) error {
	var errs []error
	if err := stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop stream: %w", err))
	}
	if err := release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
	}
	return errors.Join(errs...)
}

// Lister is implemented by devices that can enumerate playback endpoints
type Lister interface {
	Devices() ([]string, error)
}
