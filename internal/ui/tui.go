// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the probe UI
package ui

import (
	"github.com/Resonate-Protocol/lanprobe/internal/foreground"
	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// QuitMsg is sent when the user quits from the TUI
type QuitMsg struct{}

// Control carries events from the TUI back to main
type Control struct {
	Quit chan QuitMsg
}

// NewControl creates a new control handle
func NewControl() *Control {
	return &Control{
		Quit: make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(tracker *foreground.Tracker, d probe.ServiceDescriptor, control *Control) Model {
	return Model{
		tracker: tracker,
		control: control,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		service: d.String(),
		state:   probe.StateIdle,
	}
}

// Run creates the TUI program. Terminal focus events drive tracker.
func Run(tracker *foreground.Tracker, d probe.ServiceDescriptor, control *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(tracker, d, control), tea.WithReportFocus())
	return p, nil
}
