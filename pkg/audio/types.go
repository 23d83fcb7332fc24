// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats, channel layouts and stream formats
package audio

import (
	"fmt"
	"math/bits"
	"strings"
)

// SampleType is the element type of a single sample
type SampleType int

const (
	SampleNone SampleType = iota
	SampleU8
	SampleS16
	SampleS32
	SampleF32
	SampleF64
)

// Size returns the size of one sample in bytes
func (t SampleType) Size() int {
	switch t {
	case SampleU8:
		return 1
	case SampleS16:
		return 2
	case SampleS32, SampleF32:
		return 4
	case SampleF64:
		return 8
	default:
		return 0
	}
}

func (t SampleType) String() string {
	switch t {
	case SampleU8:
		return "u8"
	case SampleS16:
		return "s16"
	case SampleS32:
		return "s32"
	case SampleF32:
		return "flt"
	case SampleF64:
		return "dbl"
	default:
		return "none"
	}
}

// SampleFormat is a sample type plus its channel arrangement in memory.
// Packed formats interleave channels in one buffer (L R L R ...);
// planar formats keep one buffer per channel.
type SampleFormat struct {
	Type   SampleType
	Planar bool
}

// Common sample formats
var (
	FormatU8   = SampleFormat{Type: SampleU8}
	FormatS16  = SampleFormat{Type: SampleS16}
	FormatS16P = SampleFormat{Type: SampleS16, Planar: true}
	FormatS32  = SampleFormat{Type: SampleS32}
	FormatS32P = SampleFormat{Type: SampleS32, Planar: true}
	FormatF32  = SampleFormat{Type: SampleF32}
	FormatF32P = SampleFormat{Type: SampleF32, Planar: true}
	FormatF64  = SampleFormat{Type: SampleF64}
	FormatF64P = SampleFormat{Type: SampleF64, Planar: true}
)

// BytesPerSample returns the size of one sample of one channel
func (f SampleFormat) BytesPerSample() int {
	return f.Type.Size()
}

// IsPacked reports whether channels are interleaved
func (f SampleFormat) IsPacked() bool {
	return !f.Planar
}

func (f SampleFormat) String() string {
	if f.Planar {
		return f.Type.String() + "p"
	}
	return f.Type.String()
}

// ChannelLayout is a bitmask of speaker positions
type ChannelLayout uint64

const (
	ChannelFrontLeft ChannelLayout = 1 << iota
	ChannelFrontRight
	ChannelFrontCenter
	ChannelLowFrequency
	ChannelBackLeft
	ChannelBackRight
	ChannelSideLeft
	ChannelSideRight
)

// Standard layouts
const (
	LayoutMono     = ChannelFrontCenter
	LayoutStereo   = ChannelFrontLeft | ChannelFrontRight
	Layout2Point1  = LayoutStereo | ChannelLowFrequency
	LayoutQuad     = LayoutStereo | ChannelBackLeft | ChannelBackRight
	Layout5Point0  = LayoutStereo | ChannelFrontCenter | ChannelBackLeft | ChannelBackRight
	Layout5Point1  = Layout5Point0 | ChannelLowFrequency
	Layout7Point1  = Layout5Point1 | ChannelSideLeft | ChannelSideRight
	LayoutUnknown  = ChannelLayout(0)
	maxNamedLayout = 8
)

var channelNames = []string{"FL", "FR", "FC", "LFE", "BL", "BR", "SL", "SR"}

// DefaultLayout returns the conventional layout for a channel count.
// Counts without a conventional layout get the lowest n positions.
func DefaultLayout(channels int) ChannelLayout {
	switch channels {
	case 1:
		return LayoutMono
	case 2:
		return LayoutStereo
	case 3:
		return Layout2Point1
	case 4:
		return LayoutQuad
	case 5:
		return Layout5Point0
	case 6:
		return Layout5Point1
	case 8:
		return Layout7Point1
	}
	if channels <= 0 {
		return LayoutUnknown
	}
	if channels >= 64 {
		return ^ChannelLayout(0)
	}
	return ChannelLayout(1)<<uint(channels) - 1
}

// Channels returns the number of channels in the layout
func (l ChannelLayout) Channels() int {
	return bits.OnesCount64(uint64(l))
}

// Has reports whether the layout contains every position in c
func (l ChannelLayout) Has(c ChannelLayout) bool {
	return l&c == c
}

func (l ChannelLayout) String() string {
	switch l {
	case LayoutUnknown:
		return "unknown"
	case LayoutMono:
		return "mono"
	case LayoutStereo:
		return "stereo"
	case Layout2Point1:
		return "2.1"
	case LayoutQuad:
		return "quad"
	case Layout5Point0:
		return "5.0"
	case Layout5Point1:
		return "5.1"
	case Layout7Point1:
		return "7.1"
	}

	var names []string
	for i := 0; i < 64; i++ {
		if l&(1<<uint(i)) == 0 {
			continue
		}
		if i < maxNamedLayout {
			names = append(names, channelNames[i])
		} else {
			names = append(names, fmt.Sprintf("C%d", i))
		}
	}
	return strings.Join(names, "+")
}

// Format describes a PCM stream: sample format, channel layout and rate
type Format struct {
	Sample     SampleFormat
	Layout     ChannelLayout
	SampleRate int
}

// Channels returns the channel count of the format
func (f Format) Channels() int {
	return f.Layout.Channels()
}

// Validate checks that the format can describe real audio
func (f Format) Validate() error {
	if f.Sample.Type.Size() == 0 {
		return fmt.Errorf("invalid sample type: %s", f.Sample.Type)
	}
	if f.Channels() == 0 {
		return fmt.Errorf("invalid channel layout: %s", f.Layout)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%s %s %dHz", f.Sample, f.Layout, f.SampleRate)
}
