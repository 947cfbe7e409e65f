package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view. Teams are coloured by index,
// wrapping around when a match has more teams than colours.
type Theme struct {
	Name   string
	Title  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Teams  []lipgloss.Color
}

var Themes = []Theme{
	{
		Name:   "contest",
		Title:  lipgloss.Color("86"),
		Text:   lipgloss.Color("252"),
		Muted:  lipgloss.Color("240"),
		Accent: lipgloss.Color("205"),
		Teams:  []lipgloss.Color{"#3b82f6", "#ef4444", "#22c55e", "#eab308"},
	},
	{
		Name:   "retro",
		Title:  lipgloss.Color("#00ff00"),
		Text:   lipgloss.Color("#00cc00"),
		Muted:  lipgloss.Color("#005500"),
		Accent: lipgloss.Color("#88ff88"),
		Teams:  []lipgloss.Color{"#00ff00", "#ffff00"},
	},
	{
		Name:   "minimal",
		Title:  lipgloss.Color("#ffffff"),
		Text:   lipgloss.Color("#cccccc"),
		Muted:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Teams:  []lipgloss.Color{"#ffffff", "#888888"},
	},
}

// GetTheme returns a theme by name, the first theme if none matches.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func (t Theme) team(i int) lipgloss.Color {
	if i < 0 || len(t.Teams) == 0 {
		return t.Muted
	}
	return t.Teams[i%len(t.Teams)]
}

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	active lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	canvas lipgloss.Style
	stats  lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		active: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		canvas: lipgloss.NewStyle().Padding(1, 2),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
	}
}
