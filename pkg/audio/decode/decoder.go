// ABOUTME: Demuxer and decoder interfaces plus the container registry
// ABOUTME: Opens media files by extension and picks the audio stream to play
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

var (
	// ErrAgain means the call cannot make progress yet. ReceiveFrame returns
	// it when the decoder needs another packet; SendPacket returns it while
	// decoded frames are still waiting to be received.
	ErrAgain = errors.New("resource temporarily unavailable")

	// ErrStreamNotFound is returned when an input has no playable audio stream
	ErrStreamNotFound = errors.New("audio stream not found")

	// ErrUnsupportedFormat is returned for containers or codecs with no decoder
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Stream describes one elementary stream of an input
type Stream struct {
	Index    int
	Codec    string
	Format   audio.Format
	BitDepth int   // bits per sample in the source encoding
	Duration int64 // samples per channel, 0 when unknown
}

// Packet is a unit of stream data tagged with its stream index
type Packet struct {
	StreamIndex int
	Data        []byte
	PTS         int64
}

// Input reads packets from a media container
type Input interface {
	// Streams lists the elementary streams of the input
	Streams() []Stream

	// ReadPacket fills pkt with the next packet, reusing pkt.Data.
	// It returns io.EOF after the last packet.
	ReadPacket(pkt *Packet) error

	// Close releases the input
	Close() error
}

// Decoder turns packets into frames using send/receive semantics
type Decoder interface {
	// SendPacket submits a packet. A nil packet starts draining.
	SendPacket(pkt *Packet) error

	// ReceiveFrame fills f with the next decoded frame. It returns ErrAgain
	// when more input is needed and io.EOF once drained.
	ReceiveFrame(f *audio.Frame) error

	// Format returns the format of decoded frames
	Format() audio.Format

	// Close releases decoder resources
	Close() error
}

type openFunc func(f *os.File) (Input, error)

type container struct {
	name string
	exts []string
	open openFunc
}

var (
	initOnce   sync.Once
	registryMu sync.RWMutex
	containers []container
)

// Init registers the built-in containers. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		register("wav", []string{".wav", ".wave"}, openWAV)
		register("aiff", []string{".aif", ".aiff", ".aifc"}, openAIFF)
		register("mp3", []string{".mp3"}, openMP3)
		register("flac", []string{".flac"}, openFLAC)
		register("ogg", []string{".ogg", ".oga"}, openVorbis)
		registerOpus()
		log.Printf("Registered %d input formats", len(containers))
	})
}

func register(name string, exts []string, open openFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	containers = append(containers, container{name: name, exts: exts, open: open})
}

// Formats returns the registered container names
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(containers))
	for _, c := range containers {
		names = append(names, c.name)
	}
	return names
}

// Open opens a media file. Containers registered for the file extension are
// tried in order; the first one that accepts the file wins.
func Open(path string) (Input, error) {
	registryMu.RLock()
	candidates := make([]container, 0, 2)
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range containers {
		for _, e := range c.exts {
			if e == ext {
				candidates = append(candidates, c)
			}
		}
	}
	empty := len(containers) == 0
	registryMu.RUnlock()

	if empty {
		return nil, fmt.Errorf("no input formats registered (decode.Init not called)")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: file extension %q", ErrUnsupportedFormat, ext)
	}

	var errs []error
	for _, c := range candidates {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}

		in, err := c.open(f)
		if err == nil {
			return in, nil
		}
		f.Close()
		errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
	}

	return nil, fmt.Errorf("failed to open %s: %w", path, errors.Join(errs...))
}

// FindBestStream returns the first audio stream with a usable format
func FindBestStream(in Input) (Stream, error) {
	for _, s := range in.Streams() {
		if s.Format.Validate() == nil {
			return s, nil
		}
	}
	return Stream{}, ErrStreamNotFound
}

// NewDecoder creates a decoder for the stream's codec
func NewDecoder(s Stream) (Decoder, error) {
	if strings.HasPrefix(s.Codec, "pcm_") {
		return NewPCM(s)
	}
	return nil, fmt.Errorf("%w: codec %q", ErrUnsupportedFormat, s.Codec)
}

// fileInput carries the pieces every container input shares
type fileInput struct {
	file    *os.File
	streams []Stream
	pts     int64
}

func (in *fileInput) Streams() []Stream {
	return in.streams
}

func (in *fileInput) Close() error {
	return in.file.Close()
}

// fill stores data in pkt and advances the presentation time
func (in *fileInput) fill(pkt *Packet, samples int) {
	pkt.StreamIndex = 0
	pkt.PTS = in.pts
	in.pts += int64(samples)
}

// grow returns buf resized to n bytes, reallocating only when needed
func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// readFull reads whole frames of frameSize bytes into buf. A short final
// read is truncated to whole frames; io.EOF is returned only when nothing
// was read.
func readFull(r io.Reader, buf []byte, frameSize int) (int, error) {
	n, err := io.ReadFull(r, buf)
	n -= n % frameSize
	if n > 0 && (err == io.ErrUnexpectedEOF || err == io.EOF) {
		return n, nil
	}
	if err == io.ErrUnexpectedEOF || (err == io.EOF && n == 0) {
		return 0, io.EOF
	}
	return n, err
}
