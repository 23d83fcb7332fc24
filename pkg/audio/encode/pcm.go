// ABOUTME: PCM audio encoder
// ABOUTME: Packs float64 channel slices into interleaved little-endian PCM
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

// PCMEncoder encodes packed PCM audio
type PCMEncoder struct {
	format audio.Format
}

// NewPCM creates a new PCM encoder producing frames of the given format
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format for PCM encoder: %w", err)
	}

	if format.Sample.Planar {
		return nil, fmt.Errorf("unsupported sample format: %s (PCM output is packed)", format.Sample)
	}

	switch format.Sample.Type {
	case audio.SampleU8, audio.SampleS16, audio.SampleS32, audio.SampleF32:
	default:
		return nil, fmt.Errorf("unsupported sample format: %s (supported: u8, s16, s32, flt)", format.Sample)
	}

	return &PCMEncoder{format: format}, nil
}

// Format returns the output format
func (e *PCMEncoder) Format() audio.Format {
	return e.format
}

// Encode interleaves planes into dst
func (e *PCMEncoder) Encode(planes [][]float64, dst *audio.Frame) error {
	channels := e.format.Channels()
	if len(planes) != channels {
		return fmt.Errorf("got %d channel planes, encoder expects %d", len(planes), channels)
	}

	samples := len(planes[0])
	for ch, p := range planes {
		if len(p) != samples {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", ch, len(p), samples)
		}
	}

	dst.Alloc(e.format, samples)
	out := dst.Plane(0)
	size := e.format.Sample.BytesPerSample()

	for i := 0; i < samples; i++ {
		for ch := 0; ch < channels; ch++ {
			b := out[(i*channels+ch)*size:]
			x := planes[ch][i]
			switch e.format.Sample.Type {
			case audio.SampleU8:
				b[0] = audio.FloatToUint8(x)
			case audio.SampleS16:
				binary.LittleEndian.PutUint16(b, uint16(audio.FloatToInt16(x)))
			case audio.SampleS32:
				binary.LittleEndian.PutUint32(b, uint32(audio.FloatToInt32(x)))
			case audio.SampleF32:
				binary.LittleEndian.PutUint32(b, math.Float32bits(float32(x)))
			}
		}
	}

	return nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// Int16LE writes src into dst as little-endian 16-bit samples and returns
// the number of bytes written. Only whole samples that fit are written.
func Int16LE(dst []byte, src []int16) int {
	n := min(len(src), len(dst)/2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(src[i]))
	}
	return n * 2
}

// Float32LE writes src into dst as little-endian 32-bit floats and returns
// the number of bytes written. Only whole samples that fit are written.
func Float32LE(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(src[i]))
	}
	return n * 4
}

// LittleEndian dispatches to Int16LE or Float32LE for T
func LittleEndian[T audio.Sample](dst []byte, src []T) int {
	switch s := any(src).(type) {
	case []int16:
		return Int16LE(dst, s)
	case []float32:
		return Float32LE(dst, s)
	}
	return 0
}
