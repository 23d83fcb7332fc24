// ABOUTME: Audio encoder package for packing samples into PCM bytes
// ABOUTME: Provides the Encoder interface and little-endian PCM implementations
// Package encode packs normalized samples into interleaved PCM bytes.
//
// Supports: U8, S16, S32 and 32-bit float, all little-endian and packed.
//
// Encoders accept one float64 slice per channel in the [-1, 1] range and
// write a packed audio.Frame. The Int16LE and Float32LE helpers cover the
// device-facing path where samples are already in their final type.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	err = encoder.Encode(planes, &frame)
package encode
