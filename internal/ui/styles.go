package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorMuted  = lipgloss.Color("244")
	colorAccent = lipgloss.Color("39")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	locationStyle = lipgloss.NewStyle().Foreground(colorMuted)
	filterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	subStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorAccent)

	stateStyles = map[string]lipgloss.Style{
		"OK":        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"WARN":      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"ERROR":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"NODATA":    lipgloss.NewStyle().Foreground(colorMuted),
		"EXCEPTION": lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
	}
)

func stateBadge(state string) string {
	if state == "" {
		state = "-"
	}
	style, ok := stateStyles[state]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Width(9).Render(state)
}
