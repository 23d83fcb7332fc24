// ABOUTME: FLAC input
// ABOUTME: Decodes FLAC frames with mewkiz/flac into planar 32-bit PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

type flacInput struct {
	fileInput
	stream   *flac.Stream
	channels int
	shift    uint
}

func openFLAC(f *os.File) (Input, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac stream: %w", err)
	}

	info := stream.Info
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, fmt.Errorf("%w: flac with %d-bit samples", ErrUnsupportedFormat, info.BitsPerSample)
	}

	s := Stream{
		Codec:    "pcm_s32le_planar",
		Format:   pcmFormat("pcm_s32le_planar", int(info.NChannels), int(info.SampleRate)),
		BitDepth: int(info.BitsPerSample),
		Duration: int64(info.NSamples),
	}

	return &flacInput{
		fileInput: fileInput{file: f, streams: []Stream{s}},
		stream:    stream,
		channels:  int(info.NChannels),
		shift:     uint(32 - info.BitsPerSample),
	}, nil
}

// ReadPacket emits one FLAC frame with each channel stored contiguously
func (in *flacInput) ReadPacket(pkt *Packet) error {
	frame, err := in.stream.ParseNext()
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("failed to decode flac frame: %w", err)
	}
	if len(frame.Subframes) != in.channels {
		return fmt.Errorf("flac frame has %d channels, stream has %d", len(frame.Subframes), in.channels)
	}

	samples := int(frame.BlockSize)
	pkt.Data = grow(pkt.Data, samples*in.channels*4)
	for ch, sub := range frame.Subframes {
		plane := pkt.Data[ch*samples*4:]
		for i, v := range sub.Samples[:samples] {
			binary.LittleEndian.PutUint32(plane[i*4:], uint32(v<<in.shift))
		}
	}

	in.fill(pkt, samples)
	return nil
}

func (in *flacInput) Close() error {
	in.stream.Close()
	return in.fileInput.Close()
}
