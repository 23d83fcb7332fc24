// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

import "github.com/Resonate-Protocol/resonate-play/pkg/audio"

// Encoder packs per-channel float64 samples into a frame
type Encoder interface {
	// Encode writes planes into dst, reusing dst's storage
	Encode(planes [][]float64, dst *audio.Frame) error

	// Format returns the format of the frames produced
	Format() audio.Format

	// Close releases encoder resources
	Close() error
}
