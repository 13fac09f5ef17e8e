package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorWhite  = lipgloss.Color("15")
	ColorGray   = lipgloss.Color("240")
	ColorNavy   = lipgloss.Color("17")
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorYellow = lipgloss.Color("220")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	errorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	okStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorGray)
)

// stateBadge renders the session state as a colored pill.
func stateBadge(state string) string {
	bg := ColorGray
	switch state {
	case "monitoring":
		bg = ColorGreen
	case "connecting":
		bg = ColorYellow
	case "stopping":
		bg = ColorOrange
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(lipgloss.Color("0")).
		Bold(true).
		Padding(0, 1).
		Render(stateLabel(state))
}

func stateLabel(state string) string {
	if state == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(state)
}
