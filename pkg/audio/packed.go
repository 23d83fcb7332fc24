// ABOUTME: Checked flat view over a packed frame
// ABOUTME: Exposes interleaved frame bytes as a read-only typed sample sequence
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sample is an element type the playback path can hand to a device
type Sample interface {
	int16 | float32
}

// SampleTypeOf returns the sample type matching T
func SampleTypeOf[T Sample]() SampleType {
	var zero T
	switch any(zero).(type) {
	case int16:
		return SampleS16
	case float32:
		return SampleF32
	}
	return SampleNone
}

// View is a read-only, bounds-checked sequence of interleaved samples
// backed by a frame's first plane. It is only valid while the frame is.
type View[T Sample] struct {
	data []byte
	n    int
}

// Packed returns the frame's samples as a flat interleaved view.
//
// The frame must be packed and its sample type must match T. Both are
// programming errors when violated, so Packed panics instead of returning
// an error. The view holds exactly Samples x Channels elements.
func Packed[T Sample](f *Frame) View[T] {
	if !f.IsPacked() {
		panic(fmt.Sprintf("audio: frame data is not packed (%s)", f.Format.Sample))
	}

	want := SampleTypeOf[T]()
	if f.Format.Sample.Type != want || f.Channels() < 1 {
		panic(fmt.Sprintf("audio: frame format %s with %d channels cannot be read as %s",
			f.Format.Sample, f.Channels(), want))
	}

	n := f.Samples * f.Channels()
	size := n * want.Size()
	if len(f.Planes) == 0 || len(f.Planes[0]) < size {
		panic(fmt.Sprintf("audio: frame plane is shorter than %d samples", n))
	}

	return View[T]{data: f.Planes[0][:size:size], n: n}
}

// Len returns the number of samples across all channels
func (v View[T]) Len() int {
	return v.n
}

// At returns sample i
func (v View[T]) At(i int) T {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("audio: view index %d out of range [0, %d)", i, v.n))
	}

	var zero T
	switch any(zero).(type) {
	case int16:
		return T(int16(binary.LittleEndian.Uint16(v.data[i*2:])))
	default:
		return T(math.Float32frombits(binary.LittleEndian.Uint32(v.data[i*4:])))
	}
}

// CopyTo copies as many samples as fit into dst and returns the count
func (v View[T]) CopyTo(dst []T) int {
	n := min(len(dst), v.n)

	switch d := any(dst).(type) {
	case []int16:
		for i := 0; i < n; i++ {
			d[i] = int16(binary.LittleEndian.Uint16(v.data[i*2:]))
		}
	case []float32:
		for i := 0; i < n; i++ {
			d[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.data[i*4:]))
		}
	}

	return n
}

// AppendTo appends every sample to dst
func (v View[T]) AppendTo(dst []T) []T {
	start := len(dst)
	if cap(dst)-start < v.n {
		grown := make([]T, start, start+v.n)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+v.n]
	v.CopyTo(dst[start:])
	return dst
}
