// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo and calls the Renderer from the data callback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Name identifies the backend
func (m *Malgo) Name() string {
	return "malgo"
}

// context lazily creates the malgo context (must hold m.mu)
func (m *Malgo) context() (*malgo.AllocatedContext, error) {
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}
	return m.malgoCtx, nil
}

func malgoFormat(kind SampleKind) (malgo.FormatType, error) {
	switch kind {
	case KindI16:
		return malgo.FormatS16, nil
	case KindF32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedSampleKind, kind)
	}
}

// Devices lists the playback devices miniaudio can see
func (m *Malgo) Devices() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, err := m.context()
	if err != nil {
		return nil, err
	}

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// OpenStream initializes a playback device that renders from r
func (m *Malgo) OpenStream(cfg StreamConfig, r Renderer) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := malgoFormat(cfg.Kind)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, err := m.context()
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	// Set up callbacks
	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		r.Render(pOutputSample[:int(frameCount)*cfg.FrameSize()])
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	log.Printf("Audio output initialized: %s (malgo/%s)", cfg, formatName(format))

	return &malgoStream{device: device}, nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

type malgoStream struct {
	device *malgo.Device
}

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Close stops and uninitializes the device
func (s *malgoStream) Close() error {
	if err := s.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	s.device.Uninit()
	return nil
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
