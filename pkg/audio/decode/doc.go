// ABOUTME: Audio decoder package for reading media files into PCM frames
// ABOUTME: Provides container inputs and a send/receive decoder for WAV, AIFF, MP3, FLAC, Vorbis and Opus
// Package decode reads media files and decodes their audio into frames.
//
// Supports: WAV, AIFF, MP3, FLAC, Ogg Vorbis and Ogg Opus. Opus needs
// libopusfile; build with -tags nolibopusfile to leave it out.
//
// An Input yields packets of raw PCM in the stream's native layout. A
// Decoder accepts packets with SendPacket and hands out bounded frames with
// ReceiveFrame, returning ErrAgain when it needs more input and io.EOF once
// a flush (nil packet) has been fully drained.
//
// Init must be called once before Open.
//
// Example:
//
//	decode.Init()
//	in, err := decode.Open("song.flac")
//	stream, err := decode.FindBestStream(in)
//	dec, err := decode.NewDecoder(stream)
package decode
