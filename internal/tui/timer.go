// Package tui renders the live unit timer in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/timecalc"
)

// Driver applies timer actions and returns the resulting state.
type Driver interface {
	Apply(action pause.Action) (pause.State, error)
}

// MemoryDriver keeps the timer in process.
type MemoryDriver struct {
	State pause.State
	Now   func() time.Time
}

// NewMemoryDriver starts a timer at now.
func NewMemoryDriver(now func() time.Time) *MemoryDriver {
	return &MemoryDriver{State: pause.Start(now().UnixMilli()), Now: now}
}

// Apply runs action against the in-process state.
func (d *MemoryDriver) Apply(action pause.Action) (pause.State, error) {
	next, err := pause.Transition(d.State, action, d.Now().UnixMilli())
	if err != nil {
		return d.State, err
	}
	d.State = next
	return next, nil
}

// tickMsg is sent every second to refresh the clocks
type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

// TimerModel is the bubbletea model of one unit timer.
type TimerModel struct {
	title  string
	driver Driver
	now    func() time.Time
	state  pause.State
	reason textinput.Model
	asking bool
	err    error
	width  int
	done   bool
}

// NewTimerModel shows state for the unit described by title.
func NewTimerModel(title string, state pause.State, driver Driver, now func() time.Time) TimerModel {
	in := textinput.New()
	in.Placeholder = "Wire break"
	in.CharLimit = 80
	in.Width = 40
	in.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
	in.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	return TimerModel{title: title, driver: driver, now: now, state: state, reason: in}
}

// State returns the last known timer state.
func (m TimerModel) State() pause.State { return m.state }

// Err returns the last rejected action, if any.
func (m TimerModel) Err() error { return m.err }

func (m TimerModel) Init() tea.Cmd {
	return tick()
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.asking {
			return m.updateReason(msg)
		}
		switch msg.String() {
		case "p":
			if m.state.Status() != pause.Running {
				return m, nil
			}
			m.asking = true
			m.reason.SetValue("")
			cmd := m.reason.Focus()
			return m, cmd
		case "r":
			return m.apply(pause.Resume{}), nil
		case "e":
			m = m.apply(pause.End{})
			if m.state.Status() == pause.Ended {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		case "ctrl+c", "q", "esc":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m TimerModel) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.asking = false
		m.reason.Blur()
		return m.apply(pause.Pause{Reason: m.reason.Value()}), nil
	case tea.KeyEsc:
		m.asking = false
		m.reason.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.done = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

func (m TimerModel) apply(action pause.Action) TimerModel {
	next, err := m.driver.Apply(action)
	m.err = err
	if err == nil {
		m.state = next
	}
	return m
}

func (m TimerModel) View() string {
	snap := m.state.Snapshot(m.now().UnixMilli())

	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(m.title)

	statusColor := ColorSuccess
	switch snap.Status {
	case pause.Paused:
		statusColor = ColorWarning
	case pause.Ended:
		statusColor = ColorDisabledText
	}
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Bold(true).Render(string(snap.Status))

	clock := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 2).
		Render(snap.Elapsed)

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	lines := []string{
		header,
		"",
		clock,
		status,
		muted.Render(fmt.Sprintf("Started %s", timecalc.FormatTimestamp(m.state.StartedAt))),
		muted.Render(fmt.Sprintf("Paused total %s", timecalc.FormatHHMMSS(snap.PausedSeconds))),
	}
	if snap.Status == pause.Paused {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).
			Render(fmt.Sprintf("Pause %s  %s", snap.PauseTimer, snap.PauseReason)))
	}
	for _, s := range snap.Sessions {
		lines = append(lines, muted.Render(fmt.Sprintf("  %s  %s", timecalc.FormatHHMMSS(s.DurationSeconds), s.Reason)))
	}
	if m.asking {
		lines = append(lines, "", "Pause reason:", m.reason.View())
	}
	if m.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(m.err.Error()))
	}
	lines = append(lines, "", m.helpBar())

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m TimerModel) helpBar() string {
	help := "p pause • r resume • e end • q detach"
	if m.asking {
		help = "enter confirm • esc cancel"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Render(help)
}

// RunTimer runs the timer UI until the unit ends or the user detaches.
func RunTimer(title string, state pause.State, driver Driver) (pause.State, error) {
	p := tea.NewProgram(NewTimerModel(title, state, driver, time.Now))
	final, err := p.Run()
	if err != nil {
		return state, err
	}
	if m, ok := final.(TimerModel); ok {
		return m.State(), nil
	}
	return state, nil
}
