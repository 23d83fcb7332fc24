// ABOUTME: Ogg Vorbis input
// ABOUTME: Decodes Vorbis audio with oggvorbis into 32-bit float PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

const vorbisPacketSamples = 2048

type vorbisInput struct {
	fileInput
	dec      *oggvorbis.Reader
	channels int
	buf      []float32
}

func openVorbis(f *os.File) (Input, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create vorbis decoder: %w", err)
	}

	stream := Stream{
		Codec:    "pcm_f32le",
		Format:   pcmFormat("pcm_f32le", dec.Channels(), dec.SampleRate()),
		BitDepth: 32,
		Duration: dec.Length(),
	}

	return &vorbisInput{
		fileInput: fileInput{file: f, streams: []Stream{stream}},
		dec:       dec,
		channels:  dec.Channels(),
		buf:       make([]float32, vorbisPacketSamples*dec.Channels()),
	}, nil
}

func (in *vorbisInput) ReadPacket(pkt *Packet) error {
	n, err := in.dec.Read(in.buf)
	n -= n % in.channels
	if n == 0 {
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode vorbis: %w", err)
		}
		return io.EOF
	}

	pkt.Data = grow(pkt.Data, n*4)
	for i, v := range in.buf[:n] {
		binary.LittleEndian.PutUint32(pkt.Data[i*4:], math.Float32bits(v))
	}

	in.fill(pkt, n/in.channels)
	return nil
}
