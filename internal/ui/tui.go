// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// QuitMsg is delivered when the user asks to stop
type QuitMsg struct{}

// Control carries requests from the TUI back to the player
type Control struct {
	Quit chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Quit: make(chan QuitMsg, 1),
	}
}

func (c *Control) requestQuit() {
	select {
	case c.Quit <- QuitMsg{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(control *Control) Model {
	return Model{
		state:   "loading",
		control: control,
	}
}

// Run creates the TUI program; the caller starts it
func Run(control *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(control), tea.WithAltScreen())
	return p, nil
}
