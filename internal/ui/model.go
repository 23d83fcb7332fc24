// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Defines playback state and update logic
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-play/internal/version"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Source
	file   string
	codec  string
	source string

	// Device
	device string
	target string

	// Playback
	state    string
	err      error
	elapsed  time.Duration
	duration time.Duration

	// Stats
	queueDepth    int
	queueCapacity int
	played        uint64
	underruns     uint64
	waits         uint64

	showDebug bool
	quitting  bool
	control   *Control

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields leave the current value alone.
type StatusMsg struct {
	File   string
	Codec  string
	Source string
	Device string
	Target string
	State  string
	Err    error

	// Stats fields are applied together when QueueCapacity is set
	Elapsed       time.Duration
	Duration      time.Duration
	QueueDepth    int
	QueueCapacity int
	Played        uint64
	Underruns     uint64
	Waits         uint64
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", version.Product, version.Version)))
	b.WriteString("\n")

	m.renderSource(&b)
	m.renderProgress(&b)
	m.renderStats(&b)

	if m.showDebug {
		m.renderDebug(&b)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("d:Debug  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label+":")))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// renderSource renders the file and format line
func (m Model) renderSource(b *strings.Builder) {
	if m.file == "" {
		field(b, "File", "(none)")
		return
	}

	field(b, "File", truncate(m.file, 60))
	if m.codec != "" {
		field(b, "Format", fmt.Sprintf("%s %s", m.codec, m.source))
	}
	if m.device != "" {
		field(b, "Output", fmt.Sprintf("%s %s", m.device, m.target))
	}
}

// renderProgress renders state and elapsed time
func (m Model) renderProgress(b *strings.Builder) {
	b.WriteString("\n")

	if m.err != nil {
		field(b, "State", errorStyle.Render(m.err.Error()))
		return
	}
	field(b, "State", m.state)

	position := formatDuration(m.elapsed)
	if m.duration > 0 {
		position += " / " + formatDuration(m.duration)
		b.WriteString(barStyle.Render(renderBar(int(m.elapsed/time.Millisecond), int(m.duration/time.Millisecond), 40)))
		b.WriteString(" ")
	}
	b.WriteString(valueStyle.Render(position))
	b.WriteString("\n")
}

// renderStats renders queue and underrun counters
func (m Model) renderStats(b *strings.Builder) {
	b.WriteString("\n")

	field(b, "Queue", fmt.Sprintf("[%s] %d/%d samples",
		renderBar(m.queueDepth, m.queueCapacity, 20), m.queueDepth, m.queueCapacity))

	underruns := fmt.Sprintf("%d samples", m.underruns)
	if m.underruns > 0 {
		underruns = warnStyle.Render(underruns)
	}
	field(b, "Underrun", underruns)
}

// renderDebug renders producer internals
func (m Model) renderDebug(b *strings.Builder) {
	b.WriteString("\n")
	field(b, "Played", fmt.Sprintf("%d samples", m.played))
	field(b, "Waits", fmt.Sprintf("%d", m.waits))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.control != nil {
			m.control.requestQuit()
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.File != "" {
		m.file = msg.File
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.source = msg.Source
	}
	if msg.Device != "" {
		m.device = msg.Device
		m.target = msg.Target
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Err != nil {
		m.err = msg.Err
	}
	if msg.QueueCapacity != 0 {
		m.elapsed = msg.Elapsed
		m.duration = msg.Duration
		m.queueDepth = msg.QueueDepth
		m.queueCapacity = msg.QueueCapacity
		m.played = msg.Played
		m.underruns = msg.Underruns
		m.waits = msg.Waits
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = min((value*width)/max, width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return "..." + s[len(s)-length+3:]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
