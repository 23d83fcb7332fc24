// ABOUTME: Audio resampling package converting decoded frames to a device format
// ABOUTME: Remixes channel layouts, converts sample rates and packs samples
// Package resample converts frames between stream formats.
//
// A Stage is built once per session from the decoder's output format and the
// device's target format. Every Convert call unpacks the frame, remixes its
// channel layout, converts its sample rate with persistent state and packs
// the result into the target sample type.
//
// Rate conversion uses linear interpolation (QualityLinear) or the polyphase
// filters of github.com/tphakala/go-audio-resampler for every other quality.
//
// Example:
//
//	stage, err := resample.New(src, dst, resample.Options{Quality: resample.QualityMedium})
//	out, err := stage.Convert(frame)
package resample
