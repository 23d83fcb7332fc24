//go:build !nolibopusfile

// ABOUTME: Ogg Opus input
// ABOUTME: Decodes Opus streams with libopusfile into 16-bit PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gopkg.in/hraban/opus.v2"
)

const (
	// libopusfile always decodes at 48kHz
	opusSampleRate = 48000

	// 120ms, the largest Opus packet
	opusPacketSamples = 5760
)

type opusInput struct {
	fileInput
	stream   *opus.Stream
	channels int
	pcm      []int16
}

func registerOpus() {
	register("opus", []string{".opus", ".ogg", ".oga"}, openOpus)
}

func openOpus(f *os.File) (Input, error) {
	channels, err := opusChannels(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind opus file: %w", err)
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}

	s := Stream{
		Codec:    "pcm_s16le",
		Format:   pcmFormat("pcm_s16le", channels, opusSampleRate),
		BitDepth: 16,
	}

	return &opusInput{
		fileInput: fileInput{file: f, streams: []Stream{s}},
		stream:    stream,
		channels:  channels,
		pcm:       make([]int16, opusPacketSamples*channels),
	}, nil
}

// opusChannels reads the channel count from the OpusHead packet on the
// first Ogg page
func opusChannels(r io.Reader) (int, error) {
	var header [27]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("failed to read ogg page: %w", err)
	}
	if string(header[:4]) != "OggS" {
		return 0, fmt.Errorf("%w: not an ogg file", ErrUnsupportedFormat)
	}

	segments := make([]byte, header[26])
	if _, err := io.ReadFull(r, segments); err != nil {
		return 0, fmt.Errorf("failed to read ogg segment table: %w", err)
	}

	var head [19]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, fmt.Errorf("failed to read opus header: %w", err)
	}
	if string(head[:8]) != "OpusHead" {
		return 0, fmt.Errorf("%w: ogg stream is not opus", ErrUnsupportedFormat)
	}

	channels := int(head[9])
	if channels == 0 {
		return 0, fmt.Errorf("invalid opus channel count: %d", channels)
	}
	return channels, nil
}

func (in *opusInput) ReadPacket(pkt *Packet) error {
	n, err := in.stream.Read(in.pcm)
	if n == 0 {
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode opus: %w", err)
		}
		return io.EOF
	}

	// n counts samples per channel
	values := in.pcm[:n*in.channels]
	pkt.Data = grow(pkt.Data, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(pkt.Data[i*2:], uint16(v))
	}

	in.fill(pkt, n)
	return nil
}

func (in *opusInput) Close() error {
	in.stream.Close()
	return in.fileInput.Close()
}
