// ABOUTME: AIFF container input
// ABOUTME: Reads AIFF sample data with go-audio/aiff and emits 32-bit PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

const aiffPacketSamples = 4096

type aiffInput struct {
	fileInput
	dec      *aiff.Decoder
	channels int
	shift    uint
	intBuf   *goaudio.IntBuffer
}

func openAIFF(f *os.File) (Input, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrUnsupportedFormat)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels == 0 {
		return nil, fmt.Errorf("%w: aiff file has no sound data", ErrUnsupportedFormat)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: aiff with %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	var duration int64
	if d, err := dec.Duration(); err == nil {
		duration = int64(d.Seconds() * float64(format.SampleRate))
	}

	stream := Stream{
		Codec:    "pcm_s32le",
		Format:   pcmFormat("pcm_s32le", format.NumChannels, format.SampleRate),
		BitDepth: bitDepth,
		Duration: duration,
	}

	return &aiffInput{
		fileInput: fileInput{file: f, streams: []Stream{stream}},
		dec:       dec,
		channels:  format.NumChannels,
		shift:     uint(32 - bitDepth),
		intBuf: &goaudio.IntBuffer{
			Data:   make([]int, aiffPacketSamples*format.NumChannels),
			Format: format,
		},
	}, nil
}

func (in *aiffInput) ReadPacket(pkt *Packet) error {
	in.intBuf.Data = in.intBuf.Data[:cap(in.intBuf.Data)]

	n, err := in.dec.PCMBuffer(in.intBuf)
	n -= n % in.channels
	if n == 0 {
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read aiff samples: %w", err)
		}
		return io.EOF
	}

	// Scale every source depth to full-scale 32-bit
	pkt.Data = grow(pkt.Data, n*4)
	for i, v := range in.intBuf.Data[:n] {
		binary.LittleEndian.PutUint32(pkt.Data[i*4:], uint32(int32(v)<<in.shift))
	}

	in.fill(pkt, n/in.channels)
	return nil
}
