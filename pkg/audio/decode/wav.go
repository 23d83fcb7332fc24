// ABOUTME: WAV container input
// ABOUTME: Reads raw PCM chunk data from RIFF/WAVE files with go-audio/wav
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE

	// samples per channel in one packet
	wavPacketSamples = 4096
)

type wavInput struct {
	fileInput
	data      io.Reader
	frameSize int
	buf       []byte
}

func wavCodec(format, bitDepth uint16) (string, error) {
	switch format {
	case wavFormatPCM:
		switch bitDepth {
		case 8:
			return "pcm_u8", nil
		case 16:
			return "pcm_s16le", nil
		case 24:
			return "pcm_s24le", nil
		case 32:
			return "pcm_s32le", nil
		}
	case wavFormatFloat:
		switch bitDepth {
		case 32:
			return "pcm_f32le", nil
		case 64:
			return "pcm_f64le", nil
		}
	}
	return "", fmt.Errorf("%w: wav format %d with %d-bit samples", ErrUnsupportedFormat, format, bitDepth)
}

// wavFormatTag returns the sample format code of a RIFF/WAVE file. For
// WAVE_FORMAT_EXTENSIBLE the code comes from the first two bytes of the
// SubFormat GUID, which go-audio/wav does not expose.
func wavFormatTag(r io.ReaderAt) (uint16, error) {
	var hdr [12]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return 0, fmt.Errorf("%w: short riff header", ErrUnsupportedFormat)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return 0, fmt.Errorf("%w: not a wav file", ErrUnsupportedFormat)
	}

	off := int64(len(hdr))
	for {
		var ch [8]byte
		if _, err := r.ReadAt(ch[:], off); err != nil {
			return 0, fmt.Errorf("%w: wav fmt chunk not found", ErrUnsupportedFormat)
		}
		size := int64(binary.LittleEndian.Uint32(ch[4:]))
		if string(ch[0:4]) != "fmt " {
			// chunks are padded to even sizes
			off += 8 + size + size&1
			continue
		}

		body := make([]byte, min(size, 40))
		if _, err := r.ReadAt(body, off+8); err != nil || len(body) < 16 {
			return 0, fmt.Errorf("%w: truncated wav fmt chunk", ErrUnsupportedFormat)
		}
		tag := binary.LittleEndian.Uint16(body)
		if tag != wavFormatExtensible {
			return tag, nil
		}
		if len(body) < 26 {
			return 0, fmt.Errorf("%w: extensible wav fmt chunk without subformat", ErrUnsupportedFormat)
		}
		return binary.LittleEndian.Uint16(body[24:]), nil
	}
}

func openWAV(f *os.File) (Input, error) {
	tag, err := wavFormatTag(f)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrUnsupportedFormat)
	}

	codec, err := wavCodec(tag, dec.BitDepth)
	if err != nil {
		return nil, err
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find wav data chunk: %w", err)
	}

	channels := int(dec.NumChans)
	frameSize := channels * int(dec.BitDepth) / 8
	if frameSize == 0 {
		return nil, fmt.Errorf("invalid wav channel count: %d", channels)
	}

	stream := Stream{
		Codec:    codec,
		Format:   pcmFormat(codec, channels, int(dec.SampleRate)),
		BitDepth: int(dec.BitDepth),
		Duration: int64(dec.PCMChunk.Size / frameSize),
	}

	return &wavInput{
		fileInput: fileInput{file: f, streams: []Stream{stream}},
		data:      io.LimitReader(dec.PCMChunk.R, int64(dec.PCMChunk.Size)),
		frameSize: frameSize,
	}, nil
}

func (in *wavInput) ReadPacket(pkt *Packet) error {
	in.buf = grow(in.buf, wavPacketSamples*in.frameSize)

	n, err := readFull(in.data, in.buf, in.frameSize)
	if err != nil {
		return err
	}

	pkt.Data = append(pkt.Data[:0], in.buf[:n]...)
	in.fill(pkt, n/in.frameSize)
	return nil
}
