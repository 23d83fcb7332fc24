// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Frame and the packed frame view
// Package audio provides the fundamental audio types shared by the decoder,
// resampler and output packages.
//
// This package defines:
//   - Format: sample format, channel layout and sample rate of a PCM stream
//   - Frame: decoded audio in packed (interleaved) or planar memory layout
//   - View: a checked, read-only flat view over a packed frame
//
// It also provides conversions between integer, 24-bit packed and
// normalized float samples.
//
// Example:
//
//	format := audio.Format{
//	    Sample:     audio.FormatF32,
//	    Layout:     audio.LayoutStereo,
//	    SampleRate: 48000,
//	}
//
//	// Read a resampled frame as interleaved float32
//	view := audio.Packed[float32](frame)
//	n := view.CopyTo(buf)
package audio
