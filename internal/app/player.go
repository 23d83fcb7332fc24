// ABOUTME: Main player application orchestration
// ABOUTME: Coordinates the playback session, output device and TUI
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/resonate-play/internal/ui"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-play/pkg/audio/resample"
	"github.com/Resonate-Protocol/resonate-play/pkg/playback"
	tea "github.com/charmbracelet/bubbletea"
)

// Config holds player configuration
type Config struct {
	Path         string
	Device       string
	Format       string
	SampleRate   int
	Channels     int
	BufferSize   int
	PeriodFrames int
	Quality      string
	UseTUI       bool
}

// Player represents the main player application
type Player struct {
	config      Config
	device      output.Device
	session     *playback.Session
	tuiProg     *tea.Program
	control     *ui.Control
	playerState string
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new player
func New(config Config) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	return &Player{
		config:      config,
		playerState: "idle",
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run plays the configured file and returns when playback ends, the user
// quits or Stop is called
func (p *Player) Run() error {
	kind, err := output.ParseSampleKind(p.config.Format)
	if err != nil {
		return err
	}
	quality, err := resample.ParseQuality(p.config.Quality)
	if err != nil {
		return err
	}
	device, err := output.Select(p.config.Device)
	if err != nil {
		return err
	}
	p.device = device
	defer p.device.Close()

	if p.config.UseTUI {
		p.control = ui.NewControl()
		p.tuiProg, err = ui.Run(p.control)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		go func() {
			if _, err := p.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		defer p.tuiProg.Quit()
		go p.handleQuit()
	}

	p.updateTUI(ui.StatusMsg{File: p.config.Path, State: "loading"})

	session, err := playback.NewSession(playback.SessionConfig{
		Path:          p.config.Path,
		Device:        device,
		Kind:          kind,
		Channels:      p.config.Channels,
		SampleRate:    p.config.SampleRate,
		PeriodFrames:  p.config.PeriodFrames,
		QueueSamples:  p.config.BufferSize,
		Quality:       quality,
		StatsInterval: 500 * time.Millisecond,
		OnStats:       p.handleStats,
	})
	if err != nil {
		p.setState("error")
		p.updateTUI(ui.StatusMsg{Err: err})
		return err
	}
	defer session.Close()
	p.session = session

	stream := session.Stream()
	p.updateTUI(ui.StatusMsg{
		Codec:  stream.Codec,
		Source: stream.Format.String(),
		Device: device.Name(),
		Target: session.Target().String(),
	})

	p.setState("playing")
	if err := session.Run(p.ctx); err != nil {
		p.setState("error")
		p.updateTUI(ui.StatusMsg{Err: err})
		return err
	}

	if p.ctx.Err() != nil {
		p.setState("stopped")
	} else {
		p.setState("finished")
	}
	return nil
}

// handleQuit stops playback when the TUI asks to
func (p *Player) handleQuit() {
	select {
	case <-p.control.Quit:
		log.Printf("Received quit signal from TUI")
		p.cancel()
	case <-p.ctx.Done():
	}
}

// handleStats forwards session stats to the TUI
func (p *Player) handleStats(st playback.Stats) {
	p.updateTUI(ui.StatusMsg{
		Elapsed:       st.Elapsed,
		Duration:      st.Duration,
		QueueDepth:    st.QueueDepth,
		QueueCapacity: st.QueueCapacity,
		Played:        st.Played,
		Underruns:     st.Underruns,
		Waits:         st.Waits,
	})
}

func (p *Player) setState(state string) {
	p.playerState = state
	log.Printf("Player state: %s", state)
	p.updateTUI(ui.StatusMsg{State: state})
}

func (p *Player) updateTUI(msg ui.StatusMsg) {
	if p.tuiProg != nil {
		p.tuiProg.Send(msg)
	}
}

// Stop ends playback; Run returns once the session has shut down
func (p *Player) Stop() {
	p.cancel()
}

// ListDevices returns the playback endpoints of a backend
func ListDevices(backend string) ([]string, error) {
	device, err := output.Select(backend)
	if err != nil {
		return nil, err
	}
	defer device.Close()

	lister, ok := device.(output.Lister)
	if !ok {
		return nil, fmt.Errorf("device %s cannot list endpoints", backend)
	}
	return lister.Devices()
}
