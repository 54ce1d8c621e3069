package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the dashboard's lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Bar      lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A8A8A8")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD")),
		Bar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
	}
}
