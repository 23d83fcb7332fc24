// ABOUTME: Tests for container inputs and the registry
// ABOUTME: Writes WAV, AIFF and FLAC fixtures and decodes them back
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func intBuffer(rate, channels, bitDepth int, samples []int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
}

func writeWAV(t *testing.T, path string, rate, channels, bitDepth int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, wavFormatPCM)
	if err := enc.Write(intBuffer(rate, channels, bitDepth, samples)); err != nil {
		t.Fatalf("failed to write wav samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finish wav file: %v", err)
	}
}

func writeAIFF(t *testing.T, path string, rate, channels, bitDepth int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	enc := aiff.NewEncoder(f, rate, bitDepth, channels)
	if err := enc.Write(intBuffer(rate, channels, bitDepth, samples)); err != nil {
		t.Fatalf("failed to write aiff samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finish aiff file: %v", err)
	}
}

func ramp(n int, scale int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = (i%200 - 100) * scale
	}
	return out
}

// decodeAll runs every packet of the input through a decoder and returns
// the decoded frames' sample bytes concatenated
func decodeAll(t *testing.T, in Input) (audio.Format, []byte) {
	t.Helper()

	stream, err := FindBestStream(in)
	if err != nil {
		t.Fatalf("FindBestStream() failed: %v", err)
	}
	dec, err := NewDecoder(stream)
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}
	defer dec.Close()

	var (
		pkt   Packet
		frame audio.Frame
		out   []byte
	)
	receive := func() error {
		for {
			err := dec.ReceiveFrame(&frame)
			if err != nil {
				return err
			}
			out = append(out, frame.Plane(0)...)
		}
	}

	for {
		err := in.ReadPacket(&pkt)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket() failed: %v", err)
		}
		if err := dec.SendPacket(&pkt); err != nil {
			t.Fatalf("SendPacket() failed: %v", err)
		}
		if err := receive(); !errors.Is(err, ErrAgain) {
			t.Fatalf("expected ErrAgain after packet, got %v", err)
		}
	}

	if err := dec.SendPacket(nil); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := receive(); err != io.EOF {
		t.Fatalf("expected io.EOF after flush, got %v", err)
	}

	return dec.Format(), out
}

func TestOpenWAV16(t *testing.T) {
	Init()

	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := ramp(10000*2, 100)
	writeWAV(t, path, 44100, 2, 16, samples)

	in, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer in.Close()

	streams := in.Streams()
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	s := streams[0]
	if s.Codec != "pcm_s16le" || s.Format.SampleRate != 44100 || s.Format.Layout != audio.LayoutStereo {
		t.Errorf("unexpected stream %+v", s)
	}
	if s.Duration != 10000 {
		t.Errorf("expected duration 10000, got %d", s.Duration)
	}

	format, data := decodeAll(t, in)
	if format.Sample != audio.FormatS16 {
		t.Errorf("expected s16 frames, got %s", format.Sample)
	}
	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}
	for i, want := range samples {
		if got := int16(binary.LittleEndian.Uint16(data[i*2:])); int(got) != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestOpenWAV24(t *testing.T) {
	Init()

	path := filepath.Join(t.TempDir(), "hires.wav")
	samples := ramp(3000, 40000)
	writeWAV(t, path, 96000, 1, 24, samples)

	in, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer in.Close()

	if codec := in.Streams()[0].Codec; codec != "pcm_s24le" {
		t.Errorf("expected pcm_s24le, got %s", codec)
	}

	format, data := decodeAll(t, in)
	if format.Sample != audio.FormatS32 {
		t.Errorf("expected s32 frames, got %s", format.Sample)
	}
	for i, want := range samples {
		if got := int32(binary.LittleEndian.Uint32(data[i*4:])); got != int32(want)<<8 {
			t.Fatalf("sample %d: expected %d, got %d", i, int32(want)<<8, got)
		}
	}
}

// writeExtensibleWAV writes a WAVE_FORMAT_EXTENSIBLE file by hand since
// go-audio/wav only encodes plain PCM headers
func writeExtensibleWAV(t *testing.T, path string, rate, channels, bitDepth int, subFormat uint16, data []byte) {
	t.Helper()

	le := binary.LittleEndian
	blockAlign := channels * bitDepth / 8

	fmtChunk := le.AppendUint16(nil, wavFormatExtensible)
	fmtChunk = le.AppendUint16(fmtChunk, uint16(channels))
	fmtChunk = le.AppendUint32(fmtChunk, uint32(rate))
	fmtChunk = le.AppendUint32(fmtChunk, uint32(rate*blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint16(fmtChunk, 22)
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint32(fmtChunk, 3)
	fmtChunk = le.AppendUint16(fmtChunk, subFormat)
	fmtChunk = append(fmtChunk, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71)

	var out []byte
	out = append(out, "RIFF"...)
	out = le.AppendUint32(out, uint32(4+8+len(fmtChunk)+8+len(data)))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = le.AppendUint32(out, uint32(len(fmtChunk)))
	out = append(out, fmtChunk...)
	out = append(out, "data"...)
	out = le.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)

	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func TestOpenWAVExtensible(t *testing.T) {
	Init()

	floats := make([]byte, 0, 4800*2*4)
	for i := 0; i < 4800*2; i++ {
		v := float32(i%100-50) / 100
		floats = binary.LittleEndian.AppendUint32(floats, math.Float32bits(v))
	}
	ints := make([]byte, 4800*2*2)
	for i := 0; i < 4800*2; i++ {
		binary.LittleEndian.PutUint16(ints[i*2:], uint16(int16(i*7)))
	}

	tests := []struct {
		name      string
		bitDepth  int
		subFormat uint16
		data      []byte
		codec     string
		sample    audio.SampleFormat
	}{
		{"float subformat", 32, wavFormatFloat, floats, "pcm_f32le", audio.FormatF32},
		{"pcm subformat", 16, wavFormatPCM, ints, "pcm_s16le", audio.FormatS16},
		{"unknown subformat", 16, 0x0055, ints, "", audio.SampleFormat{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "extensible.wav")
			writeExtensibleWAV(t, path, 48000, 2, tt.bitDepth, tt.subFormat, tt.data)

			in, err := Open(path)
			if tt.codec == "" {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			defer in.Close()

			if codec := in.Streams()[0].Codec; codec != tt.codec {
				t.Fatalf("expected %s, got %s", tt.codec, codec)
			}

			format, data := decodeAll(t, in)
			if format.Sample != tt.sample {
				t.Errorf("expected %s frames, got %s", tt.sample, format.Sample)
			}
			if !bytes.Equal(data, tt.data) {
				t.Errorf("decoded samples differ from the file data")
			}
		})
	}
}

func TestWAVFormatTagSkipsChunks(t *testing.T) {
	le := binary.LittleEndian

	var file []byte
	file = append(file, "RIFF"...)
	file = le.AppendUint32(file, 0)
	file = append(file, "WAVE"...)
	file = append(file, "LIST"...)
	file = le.AppendUint32(file, 3)
	file = append(file, 'a', 'b', 'c', 0)
	file = append(file, "fmt "...)
	file = le.AppendUint32(file, 16)
	file = le.AppendUint16(file, wavFormatFloat)
	file = append(file, make([]byte, 14)...)

	tag, err := wavFormatTag(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("wavFormatTag() failed: %v", err)
	}
	if tag != wavFormatFloat {
		t.Errorf("expected format %d, got %d", wavFormatFloat, tag)
	}

	if _, err := wavFormatTag(bytes.NewReader(file[:20])); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for missing fmt chunk, got %v", err)
	}
}

func TestOpenAIFF(t *testing.T) {
	Init()

	path := filepath.Join(t.TempDir(), "tone.aiff")
	samples := ramp(5000*2, 50)
	writeAIFF(t, path, 48000, 2, 16, samples)

	in, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer in.Close()

	s := in.Streams()[0]
	if s.Codec != "pcm_s32le" || s.BitDepth != 16 || s.Format.SampleRate != 48000 {
		t.Errorf("unexpected stream %+v", s)
	}

	_, data := decodeAll(t, in)
	if len(data) != len(samples)*4 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*4, len(data))
	}
	for i, want := range samples {
		if got := int32(binary.LittleEndian.Uint32(data[i*4:])); got != int32(want)<<16 {
			t.Fatalf("sample %d: expected %d, got %d", i, int32(want)<<16, got)
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	Init()

	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"unknown extension", "notes.txt", []byte("hello")},
		{"garbage wav", "broken.wav", []byte("definitely not riff data")},
		{"garbage mp3", "broken.mp3", []byte("not an mpeg stream at all")},
		{"garbage ogg", "broken.ogg", []byte("OggS truncated page")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}
			if _, err := Open(path); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}

	if _, err := Open(filepath.Join(dir, "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadFullWholeFrames(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		bufSize int
		want    []int
	}{
		{"exact packets", make([]byte, 16), 8, []int{8, 8}},
		{"short tail", make([]byte, 10), 8, []int{8}},
		{"partial final frame", make([]byte, 14), 8, []int{8, 4}},
		{"empty", nil, 8, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// one byte per read forces readFull to assemble frames
			r := iotest.OneByteReader(bytes.NewReader(tt.data))
			buf := make([]byte, tt.bufSize)

			var got []int
			for {
				n, err := readFull(r, buf, 4)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("readFull() failed: %v", err)
				}
				got = append(got, n)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("expected reads %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected reads %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	before := len(Formats())
	Init()
	if len(Formats()) != before {
		t.Errorf("expected %d formats after second Init, got %d", before, len(Formats()))
	}
	if before < 5 {
		t.Errorf("expected built-in formats to be registered, got %v", Formats())
	}
}

type noStreams struct{}

func (noStreams) Streams() []Stream { return []Stream{{Codec: "pcm_s16le"}} }
func (noStreams) ReadPacket(pkt *Packet) error { return io.EOF }
func (noStreams) Close() error { return nil }

func TestFindBestStreamNone(t *testing.T) {
	if _, err := FindBestStream(noStreams{}); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestNewDecoderUnknownCodec(t *testing.T) {
	_, err := NewDecoder(Stream{Codec: "aac"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
