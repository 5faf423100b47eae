// ABOUTME: Bubbletea model for the probe TUI
// ABOUTME: Shows probe progress and forwards terminal focus to the foreground tracker
package ui

import (
	"fmt"

	"github.com/Resonate-Protocol/lanprobe/internal/foreground"
	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	grantedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	deniedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	tracker *foreground.Tracker
	control *Control
	spinner spinner.Model

	service string
	state   probe.State
	result  *bool

	width int
}

// StatusMsg reports a probe state change
type StatusMsg struct {
	State probe.State
}

// ResultMsg delivers the probe outcome
type ResultMsg struct {
	Granted bool
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.FocusMsg:
		m.tracker.Set(foreground.StageRunning)
	case tea.BlurMsg:
		m.tracker.Set(foreground.StagePaused)
	case StatusMsg:
		m.state = msg.State
	case ResultMsg:
		granted := msg.Granted
		m.result = &granted
		if granted {
			m.state = probe.StateGranted
		} else {
			m.state = probe.StateDenied
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(m.render())
	}
	return m.render()
}

func (m Model) render() string {
	s := fmt.Sprintf("Local network permission probe\n%s\n\n", dimStyle.Render(m.service))

	if m.result != nil {
		if *m.result {
			s += grantedStyle.Render("✓ Local network access granted") + "\n"
		} else {
			s += deniedStyle.Render("✗ Local network access not granted") + "\n"
			s += dimStyle.Render("  Enable local network access for this app in system settings.") + "\n"
		}
		return s
	}

	s += fmt.Sprintf("%s %s\n", m.spinner.View(), m.renderState())

	if !m.tracker.Active() {
		s += pausedStyle.Render("  Paused: focus this window to continue") + "\n"
	}

	s += "\n" + dimStyle.Render("q: quit") + "\n"
	return s
}

func (m Model) renderState() string {
	switch m.state {
	case probe.StateIdle:
		return "Starting..."
	case probe.StateWaitingForForeground:
		return "Waiting for foreground"
	case probe.StatePublishing:
		return "Advertising service, waiting for confirmation"
	}
	return m.state.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	}

	return m, nil
}
