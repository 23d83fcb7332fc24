// ABOUTME: Playback statistics snapshot
// ABOUTME: Counters for queue depth, underruns and elapsed time
package playback

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

// Stats is a point-in-time view of a session
type Stats struct {
	SessionID string
	Path      string
	Codec     string
	Source    audio.Format
	Target    audio.Format

	Queued    uint64 // samples pushed into the queue
	Played    uint64 // queued samples handed to the device
	Underruns uint64 // silent samples written because the queue was empty
	Frames    uint64 // decoded frames
	Waits     uint64 // times the decoder blocked on a full queue

	QueueDepth    int
	QueueCapacity int

	Elapsed  time.Duration
	Duration time.Duration // zero when the input does not report a length
}

// Fill returns the queue occupancy between 0 and 1
func (s Stats) Fill() float64 {
	if s.QueueCapacity == 0 {
		return 0
	}
	return float64(s.QueueDepth) / float64(s.QueueCapacity)
}

func (s Stats) String() string {
	return fmt.Sprintf("played %v, queue %d/%d, %d underrun samples", s.Elapsed.Round(time.Second), s.QueueDepth, s.QueueCapacity, s.Underruns)
}

// samplesToDuration converts an interleaved sample count to time
func samplesToDuration(samples uint64, f audio.Format) time.Duration {
	perSecond := uint64(f.SampleRate) * uint64(f.Channels())
	if perSecond == 0 {
		return 0
	}
	return time.Duration(samples * uint64(time.Second) / perSecond)
}
