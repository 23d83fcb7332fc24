// ABOUTME: Channel layout remixing
// ABOUTME: Builds a mixing matrix between two speaker layouts and applies it
package resample

import (
	"math"
	"math/bits"

	"github.com/Resonate-Protocol/resonate-play/pkg/audio"
)

const minus3dB = math.Sqrt2 / 2

// positions lists the speaker bits of a layout in channel order
func positions(l audio.ChannelLayout) []audio.ChannelLayout {
	out := make([]audio.ChannelLayout, 0, l.Channels())
	for v := uint64(l); v != 0; v &= v - 1 {
		out = append(out, audio.ChannelLayout(1)<<uint(bits.TrailingZeros64(v)))
	}
	return out
}

// fallbacks says where a source speaker goes when the target lacks it
var fallbacks = map[audio.ChannelLayout][]audio.ChannelLayout{
	audio.ChannelFrontCenter: {audio.ChannelFrontLeft, audio.ChannelFrontRight},
	audio.ChannelBackLeft:    {audio.ChannelSideLeft, audio.ChannelFrontLeft},
	audio.ChannelBackRight:   {audio.ChannelSideRight, audio.ChannelFrontRight},
	audio.ChannelSideLeft:    {audio.ChannelBackLeft, audio.ChannelFrontLeft},
	audio.ChannelSideRight:   {audio.ChannelBackRight, audio.ChannelFrontRight},
}

// mixMatrix returns weights[out][in], or nil when the layouts match
func mixMatrix(from, to audio.ChannelLayout) [][]float64 {
	if from == to {
		return nil
	}

	in := positions(from)
	out := positions(to)
	m := make([][]float64, len(out))
	for o := range m {
		m[o] = make([]float64, len(in))
	}

	switch {
	case len(out) == 1:
		for i := range in {
			m[0][i] = 1.0 / float64(len(in))
		}
		return m
	case len(in) == 1:
		for o := range out {
			m[o][0] = 1.0
		}
		return m
	}

	index := make(map[audio.ChannelLayout]int, len(out))
	for o, pos := range out {
		index[pos] = o
	}

	for i, pos := range in {
		if o, ok := index[pos]; ok {
			m[o][i] = 1.0
			continue
		}

		// Center splits across the front pair; surrounds fold to the
		// nearest available speaker. LFE and unnamed positions are dropped.
		targets := fallbacks[pos]
		if pos == audio.ChannelFrontCenter {
			for _, t := range targets {
				if o, ok := index[t]; ok {
					m[o][i] = minus3dB
				}
			}
			continue
		}
		for n, t := range targets {
			if o, ok := index[t]; ok {
				if n == 0 {
					m[o][i] = 1.0
				} else {
					m[o][i] = minus3dB
				}
				break
			}
		}
	}

	// Keep every output row from exceeding unity gain
	for o := range m {
		sum := 0.0
		for _, w := range m[o] {
			sum += w
		}
		if sum > 1.0 {
			for i := range m[o] {
				m[o][i] /= sum
			}
		}
	}

	return m
}

// remix applies matrix to src, reusing dst. A nil matrix returns src.
func remix(dst, src [][]float64, matrix [][]float64) [][]float64 {
	if matrix == nil {
		return src
	}

	samples := 0
	if len(src) > 0 {
		samples = len(src[0])
	}

	if cap(dst) < len(matrix) {
		dst = make([][]float64, len(matrix))
	}
	dst = dst[:len(matrix)]

	for o, weights := range matrix {
		if cap(dst[o]) < samples {
			dst[o] = make([]float64, samples)
		}
		row := dst[o][:samples]
		for n := range row {
			row[n] = 0
		}
		for i, w := range weights {
			if w == 0 {
				continue
			}
			for n, x := range src[i] {
				row[n] += w * x
			}
		}
		dst[o] = row
	}

	return dst
}
