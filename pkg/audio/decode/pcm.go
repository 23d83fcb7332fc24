// ABOUTME: PCM packet decoder
// ABOUTME: Splits raw PCM packets into bounded frames using send/receive semantics
package decode

import (
	"fmt"
	"io"
	"strings"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

// MaxFrameSamples bounds the samples per channel in one decoded frame
const MaxFrameSamples = 1024

// pcmCodec describes how a raw PCM codec is laid out
type pcmCodec struct {
	size   int // bytes per stored sample
	out    audio.SampleType
	widen  bool // 24-bit samples widened to 32-bit
	planar bool
}

var pcmCodecs = map[string]pcmCodec{
	"pcm_u8":    {size: 1, out: audio.SampleU8},
	"pcm_s16le": {size: 2, out: audio.SampleS16},
	"pcm_s24le": {size: 3, out: audio.SampleS32, widen: true},
	"pcm_s32le": {size: 4, out: audio.SampleS32},
	"pcm_f32le": {size: 4, out: audio.SampleF32},
	"pcm_f64le": {size: 8, out: audio.SampleF64},
}

// pcmFormat returns the frame format a PCM codec decodes to
func pcmFormat(codec string, channels, rate int) audio.Format {
	name, planar := strings.CutSuffix(codec, "_planar")
	return audio.Format{
		Sample:     audio.SampleFormat{Type: pcmCodecs[name].out, Planar: planar},
		Layout:     audio.DefaultLayout(channels),
		SampleRate: rate,
	}
}

// PCMDecoder decodes PCM packets. Packets of planar codecs hold each
// channel's samples one after another.
type PCMDecoder struct {
	codec    pcmCodec
	format   audio.Format
	channels int

	pending  []byte
	offset   int // samples per channel already emitted from pending
	total    int // samples per channel in pending
	pts      int64
	draining bool
}

// NewPCM creates a new PCM decoder for the stream
func NewPCM(s Stream) (*PCMDecoder, error) {
	name, planar := strings.CutSuffix(s.Codec, "_planar")
	codec, ok := pcmCodecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: invalid codec for PCM decoder: %s", ErrUnsupportedFormat, s.Codec)
	}
	codec.planar = planar

	channels := s.Format.Channels()
	if channels == 0 {
		return nil, fmt.Errorf("invalid channel layout for PCM decoder: %s", s.Format.Layout)
	}
	if s.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate for PCM decoder: %d", s.Format.SampleRate)
	}

	format := s.Format
	format.Sample = audio.SampleFormat{Type: codec.out, Planar: planar}

	return &PCMDecoder{
		codec:    codec,
		format:   format,
		channels: channels,
	}, nil
}

// Format returns the format of decoded frames
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// SendPacket queues a packet for decoding
func (d *PCMDecoder) SendPacket(pkt *Packet) error {
	if d.draining {
		return io.EOF
	}
	if d.offset < d.total {
		return ErrAgain
	}
	if pkt == nil {
		d.draining = true
		return nil
	}

	frameSize := d.codec.size * d.channels
	if len(pkt.Data)%frameSize != 0 {
		return fmt.Errorf("packet of %d bytes is not a whole number of %d-byte sample frames", len(pkt.Data), frameSize)
	}

	d.pending = append(d.pending[:0], pkt.Data...)
	d.offset = 0
	d.total = len(pkt.Data) / frameSize
	d.pts = pkt.PTS
	return nil
}

// ReceiveFrame emits the next slice of the pending packet
func (d *PCMDecoder) ReceiveFrame(f *audio.Frame) error {
	if d.offset >= d.total {
		if d.draining {
			return io.EOF
		}
		return ErrAgain
	}

	n := min(d.total-d.offset, MaxFrameSamples)
	f.Alloc(d.format, n)
	f.PTS = d.pts + int64(d.offset)

	if d.codec.planar {
		for ch := 0; ch < d.channels; ch++ {
			start := (ch*d.total + d.offset) * d.codec.size
			d.convert(f.Plane(ch), d.pending[start:start+n*d.codec.size])
		}
	} else {
		start := d.offset * d.channels * d.codec.size
		d.convert(f.Plane(0), d.pending[start:start+n*d.channels*d.codec.size])
	}

	d.offset += n
	return nil
}

func (d *PCMDecoder) convert(dst, src []byte) {
	if !d.codec.widen {
		copy(dst, src)
		return
	}

	// 24-bit samples become the top three bytes of a 32-bit sample
	for i := 0; i*3 < len(src); i++ {
		v := audio.SampleFrom24Bit([3]byte{src[i*3], src[i*3+1], src[i*3+2]}) << 8
		dst[i*4] = byte(v)
		dst[i*4+1] = byte(v >> 8)
		dst[i*4+2] = byte(v >> 16)
		dst[i*4+3] = byte(v >> 24)
	}
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.pending = nil
	return nil
}
