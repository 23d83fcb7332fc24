// ABOUTME: Entry point for the Resonate file player
// ABOUTME: Parses CLI flags and plays a media file on an audio device
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Resonate-Protocol/resonate-play/internal/app"
	"github.com/Resonate-Protocol/resonate-play/internal/version"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-play/pkg/playback"
)

var (
	device      = flag.String("device", "malgo", "Output backend ("+strings.Join(output.Backends(), "|")+")")
	format      = flag.String("format", "f32", "Device sample format (f32|i16|u16)")
	rate        = flag.Int("rate", 48000, "Device sample rate in Hz (0 keeps the file rate)")
	channels    = flag.Int("channels", 2, "Device channel count (0 keeps the file layout)")
	bufferSize  = flag.Int("buffer", playback.DefaultQueueSamples, "Sample queue capacity in samples")
	period      = flag.Int("period", playback.DefaultPeriodFrames, "Device frames per callback")
	quality     = flag.String("quality", "medium", "Resampler quality (linear|quick|low|medium|high|veryhigh)")
	logFile     = flag.String("log-file", "resonate-play.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	listDevices = flag.Bool("list-devices", false, "List playback devices of the selected backend and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listDevices {
		names, err := app.ListDevices(*device)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list devices: %v\n", err)
			os.Exit(1)
		}
		for i, name := range names {
			fmt.Printf("%d: %s\n", i, name)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	player := app.New(app.Config{
		Path:         flag.Arg(0),
		Device:       *device,
		Format:       *format,
		SampleRate:   *rate,
		Channels:     *channels,
		BufferSize:   *bufferSize,
		PeriodFrames: *period,
		Quality:      *quality,
		UseTUI:       useTUI,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		player.Stop()
	}()

	if err := player.Run(); err != nil {
		log.Printf("Playback failed: %v", err)
		if useTUI {
			fmt.Fprintf(os.Stderr, "Playback failed: %v\n", err)
		}
		_ = f.Close()
		os.Exit(1)
	}

	log.Printf("Player stopped")
}
