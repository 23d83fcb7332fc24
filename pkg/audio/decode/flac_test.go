// ABOUTME: Tests for the FLAC input
// ABOUTME: Encodes a stereo fixture with mewkiz/flac and checks the planar frames decoded from it
package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// writeFLAC encodes 16-bit stereo audio in blocks of blockSize samples
func writeFLAC(t *testing.T, path string, rate, blockSize int, left, right []int32) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    uint32(rate),
		NChannels:     2,
		BitsPerSample: 16,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		t.Fatalf("failed to create flac encoder: %v", err)
	}
	enc.EnablePredictionAnalysis(false)

	for start := 0; start < len(left); start += blockSize {
		end := min(start+blockSize, len(left))
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(end - start),
				SampleRate:        uint32(rate),
				Channels:          frame.ChannelsLR,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left[start:end], NSamples: end - start},
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right[start:end], NSamples: end - start},
			},
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			t.Fatalf("failed to write flac frame: %v", err)
		}
	}

	// Close rewrites the stream info and closes f
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finish flac file: %v", err)
	}
}

func TestOpenFLACPlanar(t *testing.T) {
	Init()

	const total = 4096 + 1000
	left := make([]int32, total)
	right := make([]int32, total)
	for i := range left {
		left[i] = int32((i%300 - 150) * 100)
		right[i] = -left[i] / 2
	}

	path := filepath.Join(t.TempDir(), "tone.flac")
	writeFLAC(t, path, 44100, 4096, left, right)

	in, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer in.Close()

	stream, err := FindBestStream(in)
	if err != nil {
		t.Fatalf("FindBestStream() failed: %v", err)
	}
	if stream.Codec != "pcm_s32le_planar" || stream.BitDepth != 16 || stream.Format.Layout != audio.LayoutStereo {
		t.Errorf("unexpected stream %+v", stream)
	}
	if stream.Duration != total {
		t.Errorf("expected duration %d, got %d", total, stream.Duration)
	}

	dec, err := NewDecoder(stream)
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}
	defer dec.Close()

	var (
		pkt    Packet
		fr     audio.Frame
		got    [2][]int32
		frames int
	)
	receive := func() error {
		for {
			if err := dec.ReceiveFrame(&fr); err != nil {
				return err
			}
			if fr.Format.Sample != audio.FormatS32P {
				t.Fatalf("expected planar s32 frames, got %s", fr.Format.Sample)
			}
			if fr.Samples > MaxFrameSamples {
				t.Fatalf("frame of %d samples exceeds %d", fr.Samples, MaxFrameSamples)
			}

			// The float view of a planar frame must line up with its planes
			planes, err := fr.ReadFloat64(nil)
			if err != nil {
				t.Fatalf("ReadFloat64() failed: %v", err)
			}

			for ch := range got {
				plane := fr.Plane(ch)
				for i := 0; i < fr.Samples; i++ {
					v := int32(binary.LittleEndian.Uint32(plane[i*4:]))
					got[ch] = append(got[ch], v>>16)
					if want := float64(v>>16) / 32768; planes[ch][i] != want {
						t.Fatalf("channel %d sample %d: float view %f, want %f", ch, i, planes[ch][i], want)
					}
				}
			}
			frames++
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

	// 4096 splits into four frames, the 1000 sample tail into one
	if frames != 5 {
		t.Errorf("expected 5 frames, got %d", frames)
	}
	for ch, want := range [][]int32{left, right} {
		if len(got[ch]) != len(want) {
			t.Fatalf("channel %d: expected %d samples, got %d", ch, len(want), len(got[ch]))
		}
		for i := range want {
			if got[ch][i] != want[i] {
				t.Fatalf("channel %d sample %d: expected %d, got %d", ch, i, want[i], got[ch][i])
			}
		}
	}
}

func TestOpenFLACRejectsGarbage(t *testing.T) {
	Init()

	path := filepath.Join(t.TempDir(), "broken.flac")
	if err := os.WriteFile(path, []byte("fLaC but not really"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for corrupt flac file")
	}
}
