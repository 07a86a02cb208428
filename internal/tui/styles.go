package tui

import "github.com/charmbracelet/lipgloss"

var (
	brand   = lipgloss.Color("#8BC34A")
	ink     = lipgloss.Color("#101F38")
	muted   = lipgloss.Color("#7A8699")
	danger  = lipgloss.Color("#E53935")
	warning = lipgloss.Color("#FFC107")
)

// Styles used across the stages.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Selected lipgloss.Style
	Option   lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Box      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(brand).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(muted),
		Label:    lipgloss.NewStyle().Bold(true),
		Focused:  lipgloss.NewStyle().Bold(true).Foreground(brand),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(ink).Background(brand).Padding(0, 1),
		Option:   lipgloss.NewStyle().Padding(0, 1),
		Help:     lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(danger),
		Notice:   lipgloss.NewStyle().Foreground(warning),
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(brand).Padding(1, 2),
	}
}
