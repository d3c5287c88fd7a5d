package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	SpotifyGreen = lipgloss.Color("#1DB954")
	Warning      = lipgloss.Color("#F59E0B") // Amber
	Error        = lipgloss.Color("#EF4444") // Red
	TextMuted    = lipgloss.Color("#9CA3AF") // Gray
	TextDim      = lipgloss.Color("#6B7280") // Darker gray
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(SpotifyGreen)

	Stopped = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SpotifyGreen)
)

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Stopped.Render("■")
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
