package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/cadence/internal/core"
)

type trackMsg core.Track

type idleMsg struct{}

// playingModel shows the track in flight until any key is pressed.
type playingModel struct {
	spinner  spinner.Model
	track    *core.Track
	idle     bool
	quitting bool
}

func newPlayingModel(current *core.Track) playingModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = Playing
	return playingModel{spinner: s, track: current}
}

func (m playingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m playingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.quitting = true
		return m, tea.Quit

	case trackMsg:
		t := core.Track(msg)
		m.track = &t
		m.idle = false
		return m, nil

	case idleMsg:
		m.idle = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m playingModel) View() string {
	if m.quitting {
		return ""
	}
	if m.idle {
		return StatusIcon(false) + " " + Muted.Render("End of queue. Press any key.") + "\n"
	}
	if m.track == nil {
		return m.spinner.View() + " " + Muted.Render("Loading...") + "\n"
	}

	line := m.spinner.View() + " now playing " + Title.Render(m.track.Title)
	if m.track.Artist != "" {
		line += " - " + m.track.Artist
	}
	if m.track.Duration > 0 {
		line += " " + Dim.Render(FormatDuration(m.track.Duration))
	}
	return line + "\n"
}
