package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles shared by the CLI output.
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(18)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusWarn = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))
)

// ProgressBar renders a bar of width cells filled up to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func Separator(width int) string {
	if width < 7 {
		return Subtle.Render(strings.Repeat("─", width))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-1))
}
