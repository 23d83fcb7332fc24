// ABOUTME: Tests for the PCM packet decoder
// ABOUTME: Tests send/receive semantics, frame splitting and sample widening
package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

func pcmStream(codec string, channels int) Stream {
	return Stream{
		Codec: codec,
		Format: audio.Format{
			Layout:     audio.DefaultLayout(channels),
			SampleRate: 48000,
		},
	}
}

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name    string
		stream  Stream
		want    audio.SampleFormat
		wantErr bool
	}{
		{"16-bit", pcmStream("pcm_s16le", 2), audio.FormatS16, false},
		{"24-bit widens", pcmStream("pcm_s24le", 2), audio.FormatS32, false},
		{"float", pcmStream("pcm_f32le", 1), audio.FormatF32, false},
		{"planar", pcmStream("pcm_s32le_planar", 2), audio.FormatS32P, false},
		{"unknown codec", pcmStream("pcm_alaw", 2), audio.SampleFormat{}, true},
		{"no channels", pcmStream("pcm_s16le", 0), audio.SampleFormat{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewPCM(tt.stream)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPCM() failed: %v", err)
			}
			if dec.Format().Sample != tt.want {
				t.Errorf("expected sample format %s, got %s", tt.want, dec.Format().Sample)
			}
		})
	}
}

func TestPCMDecoderSendReceive(t *testing.T) {
	dec, err := NewPCM(pcmStream("pcm_s16le", 2))
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	var f audio.Frame
	if err := dec.ReceiveFrame(&f); !errors.Is(err, ErrAgain) {
		t.Fatalf("expected ErrAgain before any input, got %v", err)
	}

	data := make([]byte, 4*2)
	for i, s := range []int16{1, -1, 2, -2} {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	if err := dec.SendPacket(&Packet{Data: data, PTS: 100}); err != nil {
		t.Fatalf("SendPacket() failed: %v", err)
	}

	// A second packet is refused until the first is received
	if err := dec.SendPacket(&Packet{Data: data}); !errors.Is(err, ErrAgain) {
		t.Fatalf("expected ErrAgain while frames are pending, got %v", err)
	}

	if err := dec.ReceiveFrame(&f); err != nil {
		t.Fatalf("ReceiveFrame() failed: %v", err)
	}
	if f.Samples != 2 || f.PTS != 100 {
		t.Errorf("expected 2 samples at PTS 100, got %d at %d", f.Samples, f.PTS)
	}
	if audio.Packed[int16](&f).At(3) != -2 {
		t.Errorf("unexpected last sample")
	}

	if err := dec.ReceiveFrame(&f); !errors.Is(err, ErrAgain) {
		t.Fatalf("expected ErrAgain after packet is consumed, got %v", err)
	}

	if err := dec.SendPacket(nil); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := dec.ReceiveFrame(&f); err != io.EOF {
		t.Fatalf("expected io.EOF after flush, got %v", err)
	}
	if err := dec.SendPacket(&Packet{Data: data}); err != io.EOF {
		t.Fatalf("expected io.EOF when sending after flush, got %v", err)
	}
}

func TestPCMDecoderSplitsLargePackets(t *testing.T) {
	dec, _ := NewPCM(pcmStream("pcm_s16le", 1))

	total := MaxFrameSamples*2 + 10
	data := make([]byte, total*2)
	for i := 0; i < total; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(i))
	}
	if err := dec.SendPacket(&Packet{Data: data}); err != nil {
		t.Fatalf("SendPacket() failed: %v", err)
	}

	var f audio.Frame
	next := 0
	frames := 0
	for {
		err := dec.ReceiveFrame(&f)
		if errors.Is(err, ErrAgain) {
			break
		}
		if err != nil {
			t.Fatalf("ReceiveFrame() failed: %v", err)
		}
		if f.Samples > MaxFrameSamples {
			t.Fatalf("frame of %d samples exceeds limit", f.Samples)
		}
		if f.PTS != int64(next) {
			t.Errorf("expected PTS %d, got %d", next, f.PTS)
		}
		view := audio.Packed[int16](&f)
		for i := 0; i < view.Len(); i++ {
			if view.At(i) != int16(next) {
				t.Fatalf("sample %d: got %d", next, view.At(i))
			}
			next++
		}
		frames++
	}

	if frames != 3 || next != total {
		t.Errorf("expected 3 frames covering %d samples, got %d frames and %d samples", total, frames, next)
	}
}

func TestPCMDecoderWidens24Bit(t *testing.T) {
	dec, _ := NewPCM(pcmStream("pcm_s24le", 1))

	data := []byte{0x56, 0x34, 0x12, 0x00, 0x00, 0x80}
	if err := dec.SendPacket(&Packet{Data: data}); err != nil {
		t.Fatalf("SendPacket() failed: %v", err)
	}

	var f audio.Frame
	if err := dec.ReceiveFrame(&f); err != nil {
		t.Fatalf("ReceiveFrame() failed: %v", err)
	}

	plane := f.Plane(0)
	if got := int32(binary.LittleEndian.Uint32(plane)); got != 0x12345600 {
		t.Errorf("expected 0x12345600, got %#x", got)
	}
	if got := int32(binary.LittleEndian.Uint32(plane[4:])); got != audio.Min24Bit<<8 {
		t.Errorf("expected full-scale negative, got %d", got)
	}
}

func TestPCMDecoderPlanar(t *testing.T) {
	dec, _ := NewPCM(pcmStream("pcm_s32le_planar", 2))

	// Three samples of left followed by three samples of right
	data := make([]byte, 6*4)
	for i, v := range []int32{1, 2, 3, -1, -2, -3} {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	if err := dec.SendPacket(&Packet{Data: data}); err != nil {
		t.Fatalf("SendPacket() failed: %v", err)
	}

	var f audio.Frame
	if err := dec.ReceiveFrame(&f); err != nil {
		t.Fatalf("ReceiveFrame() failed: %v", err)
	}
	if f.IsPacked() || len(f.Planes) != 2 {
		t.Fatalf("expected two planes, got packed=%v planes=%d", f.IsPacked(), len(f.Planes))
	}
	if got := int32(binary.LittleEndian.Uint32(f.Plane(1)[8:])); got != -3 {
		t.Errorf("expected last right sample -3, got %d", got)
	}
}

func TestPCMDecoderRejectsPartialFrames(t *testing.T) {
	dec, _ := NewPCM(pcmStream("pcm_s16le", 2))

	if err := dec.SendPacket(&Packet{Data: make([]byte, 6)}); err == nil {
		t.Fatal("expected error for packet splitting a sample frame")
	}
}
