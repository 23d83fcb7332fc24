// ABOUTME: Inspects a media file without an audio device
// ABOUTME: Lists streams and decodes everything, reporting frame statistics
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/resample"
)

var (
	rate    = flag.Int("rate", 0, "Also resample to this rate and report the output size")
	quality = flag.String("quality", "medium", "Resampler quality used with -rate")
	verbose = flag.Bool("v", false, "Log every frame")
)

type report struct {
	frames   int
	samples  int64 // per channel
	packed   bool
	resample int64 // per channel, when -rate is set
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if err := probe(flag.Arg(0)); err != nil {
		log.Printf("Probe failed: %v", err)
		os.Exit(1)
	}
}

func probe(path string) error {
	decode.Init()

	in, err := decode.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	fmt.Printf("=== %s ===\n", path)
	for _, s := range in.Streams() {
		fmt.Printf("Stream #%d: %s, %s, %d-bit", s.Index, s.Codec, s.Format, s.BitDepth)
		if s.Duration > 0 && s.Format.SampleRate > 0 {
			fmt.Printf(", %v", samplesToDuration(s.Duration, s.Format.SampleRate))
		}
		fmt.Println()
	}

	stream, err := decode.FindBestStream(in)
	if err != nil {
		return err
	}
	dec, err := decode.NewDecoder(stream)
	if err != nil {
		return err
	}
	defer dec.Close()

	var stage *resample.Stage
	if *rate > 0 {
		q, err := resample.ParseQuality(*quality)
		if err != nil {
			return err
		}
		src := dec.Format()
		dst := audio.Format{Sample: audio.FormatF32, Layout: src.Layout, SampleRate: *rate}
		stage, err = resample.New(src, dst, resample.Options{Quality: q})
		if err != nil {
			return err
		}
	}

	start := time.Now()
	r, err := decodeStream(in, stream.Index, dec, stage)
	if err != nil {
		return err
	}

	layout := "planar"
	if r.packed {
		layout = "packed"
	}
	fmt.Printf("Decoded: %d frames, %d samples per channel (%s), %v of audio in %v\n",
		r.frames, r.samples, layout, samplesToDuration(r.samples, dec.Format().SampleRate), time.Since(start).Round(time.Millisecond))
	if stage != nil {
		fmt.Printf("Resampled: %d samples per channel at %dHz (%v)\n",
			r.resample, *rate, samplesToDuration(r.resample, *rate))
	}
	return nil
}

func decodeStream(in decode.Input, index int, dec decode.Decoder, stage *resample.Stage) (report, error) {
	var (
		r     report
		pkt   decode.Packet
		frame audio.Frame
	)
	r.packed = dec.Format().Sample.IsPacked()

	receive := func() error {
		for {
			err := dec.ReceiveFrame(&frame)
			if errors.Is(err, decode.ErrAgain) || err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to decode frame: %w", err)
			}

			r.frames++
			r.samples += int64(frame.Samples)
			if *verbose {
				log.Printf("Frame %d: pts=%d samples=%d format=%s", r.frames, frame.PTS, frame.Samples, frame.Format)
			}

			if stage != nil {
				out, err := stage.Convert(&frame)
				if err != nil {
					return err
				}
				r.resample += int64(out.Samples)
			}
		}
	}

	send := func(p *decode.Packet) error {
		for {
			err := dec.SendPacket(p)
			if errors.Is(err, decode.ErrAgain) {
				if err := receive(); err != nil {
					return err
				}
				continue
			}
			if err != nil && !(err == io.EOF && p == nil) {
				return fmt.Errorf("failed to send packet: %w", err)
			}
			return receive()
		}
	}

	for {
		err := in.ReadPacket(&pkt)
		if err == io.EOF {
			break
		}
		if err != nil {
			return r, fmt.Errorf("failed to read packet: %w", err)
		}
		if pkt.StreamIndex != index {
			continue
		}
		if err := send(&pkt); err != nil {
			return r, err
		}
	}

	if err := send(nil); err != nil {
		return r, err
	}

	if stage != nil {
		tail, err := stage.Flush()
		if err != nil {
			return r, err
		}
		r.resample += int64(tail.Samples)
	}
	return r, nil
}

func samplesToDuration(samples int64, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(samples * int64(time.Second) / int64(rate))
}
