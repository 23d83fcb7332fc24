// ABOUTME: MP3 input
// ABOUTME: Decodes MPEG audio with go-mp3 into 16-bit stereo PCM packets
package decode

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

const (
	// go-mp3 always produces 16-bit little-endian stereo
	mp3FrameSize = 4

	// one MPEG-1 Layer III frame worth of samples
	mp3PacketSamples = 1152
)

type mp3Input struct {
	fileInput
	dec *mp3.Decoder
	buf []byte
}

func openMP3(f *os.File) (Input, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	stream := Stream{
		Codec:    "pcm_s16le",
		Format:   pcmFormat("pcm_s16le", 2, dec.SampleRate()),
		BitDepth: 16,
	}
	if length := dec.Length(); length > 0 {
		stream.Duration = length / mp3FrameSize
	}

	return &mp3Input{
		fileInput: fileInput{file: f, streams: []Stream{stream}},
		dec:       dec,
	}, nil
}

func (in *mp3Input) ReadPacket(pkt *Packet) error {
	in.buf = grow(in.buf, mp3PacketSamples*mp3FrameSize)

	n, err := readFull(in.dec, in.buf, mp3FrameSize)
	if err != nil {
		return err
	}

	pkt.Data = append(pkt.Data[:0], in.buf[:n]...)
	in.fill(pkt, n/mp3FrameSize)
	return nil
}
