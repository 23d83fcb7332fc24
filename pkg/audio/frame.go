// ABOUTME: Decoded audio frame and its memory layout
// ABOUTME: Frames hold packed or planar sample bytes plus format metadata
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame is a unit of decoded or resampled audio.
//
// Packed frames keep every channel interleaved in Planes[0]. Planar frames
// keep one plane per channel. Planes may be longer than the populated
// extent because storage is reused between frames; the valid extent is
// always Samples x Channels, never the plane length.
type Frame struct {
	Format  Format
	Samples int // samples per channel
	Planes  [][]byte
	PTS     int64 // presentation time in samples at Format.SampleRate
}

// Channels returns the channel count of the frame
func (f *Frame) Channels() int {
	return f.Format.Channels()
}

// IsPacked reports whether the frame stores channels interleaved
func (f *Frame) IsPacked() bool {
	return f.Format.Sample.IsPacked()
}

// PlaneCount returns how many planes the frame format uses
func (f *Frame) PlaneCount() int {
	if f.IsPacked() {
		return 1
	}
	return f.Channels()
}

// PlaneSize returns the number of valid bytes in each plane
func (f *Frame) PlaneSize() int {
	size := f.Samples * f.Format.Sample.BytesPerSample()
	if f.IsPacked() {
		size *= f.Channels()
	}
	return size
}

// Plane returns the valid extent of plane i
func (f *Frame) Plane(i int) []byte {
	size := f.PlaneSize()
	if i < 0 || i >= len(f.Planes) || len(f.Planes[i]) < size {
		panic(fmt.Sprintf("audio: plane %d does not hold %d bytes", i, size))
	}
	return f.Planes[i][:size:size]
}

// Alloc prepares the frame to hold samples of the given format.
// Existing plane storage is reused and never shrinks.
func (f *Frame) Alloc(format Format, samples int) {
	f.Format = format
	f.Samples = samples

	n := f.PlaneCount()
	size := f.PlaneSize()

	if cap(f.Planes) < n {
		planes := make([][]byte, n)
		copy(planes, f.Planes)
		f.Planes = planes
	}
	f.Planes = f.Planes[:n]

	for i := range f.Planes {
		if cap(f.Planes[i]) < size {
			f.Planes[i] = make([]byte, size)
			continue
		}
		if len(f.Planes[i]) < size {
			f.Planes[i] = f.Planes[i][:size]
		}
	}
}

// Reset clears the frame metadata but keeps its storage
func (f *Frame) Reset() {
	f.Samples = 0
	f.PTS = 0
}

// ReadFloat64 converts the frame into one normalized float64 slice per
// channel, reusing dst when it is large enough.
func (f *Frame) ReadFloat64(dst [][]float64) ([][]float64, error) {
	channels := f.Channels()
	sampleType := f.Format.Sample.Type
	size := sampleType.Size()
	if size == 0 || channels == 0 {
		return nil, fmt.Errorf("cannot read frame format %s", f.Format)
	}
	if len(f.Planes) < f.PlaneCount() {
		return nil, fmt.Errorf("frame has %d planes, format %s needs %d", len(f.Planes), f.Format.Sample, f.PlaneCount())
	}

	if cap(dst) < channels {
		grown := make([][]float64, channels)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:channels]
	for ch := range dst {
		if cap(dst[ch]) < f.Samples {
			dst[ch] = make([]float64, f.Samples)
		}
		dst[ch] = dst[ch][:f.Samples]
	}

	for ch := 0; ch < channels; ch++ {
		var plane []byte
		offset, stride := 0, size
		if f.IsPacked() {
			plane = f.Plane(0)
			offset = ch * size
			stride = size * channels
		} else {
			plane = f.Plane(ch)
		}

		out := dst[ch]
		for i := range out {
			b := plane[offset+i*stride:]
			switch sampleType {
			case SampleU8:
				out[i] = Uint8ToFloat(b[0])
			case SampleS16:
				out[i] = Int16ToFloat(int16(binary.LittleEndian.Uint16(b)))
			case SampleS32:
				out[i] = Int32ToFloat(int32(binary.LittleEndian.Uint32(b)))
			case SampleF32:
				out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			case SampleF64:
				out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
			}
		}
	}

	return dst, nil
}
