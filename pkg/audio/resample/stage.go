// ABOUTME: Resample stage converting decoded frames into the device format
// ABOUTME: Owns remix matrix, per-channel rate converters and the output frame
package resample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/encode"
	resampler "github.com/tphakala/go-audio-resampler"
)

// ErrUnsupportedConversion is returned when a stage cannot convert between
// the requested formats
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// Quality selects the rate conversion engine
type Quality int

const (
	QualityLinear Quality = iota
	QualityQuick
	QualityLow
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

var qualityNames = []string{"linear", "quick", "low", "medium", "high", "veryhigh"}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("quality(%d)", int(q))
	}
	return qualityNames[q]
}

// ParseQuality parses a quality name such as "medium"
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resample quality %q (supported: %s)", s, strings.Join(qualityNames, ", "))
}

func (q Quality) preset() resampler.QualityPreset {
	switch q {
	case QualityQuick:
		return resampler.QualityQuick
	case QualityLow:
		return resampler.QualityLow
	case QualityHigh:
		return resampler.QualityHigh
	case QualityVeryHigh:
		return resampler.QualityVeryHigh
	default:
		return resampler.QualityMedium
	}
}

// Options configures a Stage
type Options struct {
	Quality Quality
}

// converter rate-converts a single channel
type converter interface {
	Process(input []float64) ([]float64, error)
	Flush() ([]float64, error)
}

// Stage converts frames from a source format to a packed target format.
// It is not safe for concurrent use.
type Stage struct {
	src     audio.Format
	dst     audio.Format
	matrix  [][]float64
	convs   []converter
	encoder *encode.PCMEncoder

	planes  [][]float64
	mixed   [][]float64
	pending [][]float64
	ready   [][]float64
	out     audio.Frame
	pts     int64
}

// New creates a stage converting src frames into dst frames
func New(src, dst audio.Format, opts Options) (*Stage, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: source format: %v", ErrUnsupportedConversion, err)
	}
	if err := dst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: target format: %v", ErrUnsupportedConversion, err)
	}

	encoder, err := encode.NewPCM(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedConversion, err)
	}

	s := &Stage{
		src:     src,
		dst:     dst,
		matrix:  mixMatrix(src.Layout, dst.Layout),
		encoder: encoder,
	}

	if src.SampleRate != dst.SampleRate {
		channels := dst.Channels()
		s.convs = make([]converter, channels)
		s.pending = make([][]float64, channels)
		for ch := range s.convs {
			if opts.Quality == QualityLinear {
				s.convs[ch] = NewLinear(src.SampleRate, dst.SampleRate)
				continue
			}
			engine, err := resampler.NewEngine(float64(src.SampleRate), float64(dst.SampleRate), opts.Quality.preset())
			if err != nil {
				return nil, fmt.Errorf("failed to create resampler %dHz -> %dHz: %w", src.SampleRate, dst.SampleRate, err)
			}
			s.convs[ch] = engine
		}
	}

	return s, nil
}

// Source returns the format the stage accepts
func (s *Stage) Source() audio.Format {
	return s.src
}

// Target returns the format the stage produces
func (s *Stage) Target() audio.Format {
	return s.dst
}

// Convert converts one frame. The returned frame is owned by the stage and
// valid until the next Convert or Flush.
func (s *Stage) Convert(in *audio.Frame) (*audio.Frame, error) {
	if in.Format.Sample != s.src.Sample || in.Channels() != s.src.Channels() || in.Format.SampleRate != s.src.SampleRate {
		return nil, fmt.Errorf("%w: frame format %s does not match stage source %s", ErrUnsupportedConversion, in.Format, s.src)
	}

	planes, err := in.ReadFloat64(s.planes)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack frame: %w", err)
	}
	s.planes = planes

	s.mixed = remix(s.mixed, planes, s.matrix)

	if s.convs == nil {
		return s.emit(s.mixed)
	}

	for ch, conv := range s.convs {
		out, err := conv.Process(s.mixed[ch])
		if err != nil {
			return nil, fmt.Errorf("failed to resample channel %d: %w", ch, err)
		}
		s.pending[ch] = append(s.pending[ch], out...)
	}

	return s.emitPending(false)
}

// Flush drains the rate converters at end of stream. The returned frame
// may hold zero samples.
func (s *Stage) Flush() (*audio.Frame, error) {
	if s.convs == nil {
		return s.emit(s.mixed[:0])
	}

	for ch, conv := range s.convs {
		out, err := conv.Flush()
		if err != nil {
			return nil, fmt.Errorf("failed to flush channel %d: %w", ch, err)
		}
		s.pending[ch] = append(s.pending[ch], out...)
	}

	return s.emitPending(true)
}

// emitPending packs the samples every channel has produced. Channels whose
// converters run ahead keep the surplus for the next call; on the final
// call shorter channels are padded with silence instead.
func (s *Stage) emitPending(final bool) (*audio.Frame, error) {
	n := len(s.pending[0])
	for _, p := range s.pending[1:] {
		if final {
			n = max(n, len(p))
		} else {
			n = min(n, len(p))
		}
	}

	if cap(s.ready) < len(s.pending) {
		s.ready = make([][]float64, len(s.pending))
	}
	s.ready = s.ready[:len(s.pending)]
	for ch := range s.pending {
		for len(s.pending[ch]) < n {
			s.pending[ch] = append(s.pending[ch], 0)
		}
		s.ready[ch] = s.pending[ch][:n]
	}

	frame, err := s.emit(s.ready)
	if err != nil {
		return nil, err
	}

	for ch, p := range s.pending {
		s.pending[ch] = p[:copy(p, p[n:])]
	}
	return frame, nil
}

func (s *Stage) emit(planes [][]float64) (*audio.Frame, error) {
	if len(planes) == 0 {
		s.out.Alloc(s.dst, 0)
		s.out.PTS = s.pts
		return &s.out, nil
	}

	if err := s.encoder.Encode(planes, &s.out); err != nil {
		return nil, fmt.Errorf("failed to pack frame: %w", err)
	}
	s.out.PTS = s.pts
	s.pts += int64(s.out.Samples)
	return &s.out, nil
}
