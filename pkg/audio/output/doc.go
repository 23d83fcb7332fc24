// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Device interface plus oto, malgo, PortAudio and virtual backends
// Package output binds playback streams to audio devices.
//
// Devices call a Renderer on their own schedule to fill a buffer of
// interleaved samples. Backends: oto, malgo (miniaudio), PortAudio (build
// with -tags portaudio) and a virtual device driven by a ticker.
//
// Example:
//
//	dev, err := output.Select("malgo")
//	stream, err := dev.OpenStream(output.StreamConfig{Kind: output.KindF32, Channels: 2, SampleRate: 48000}, renderer)
//	err = stream.Start()
package output
