package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the report's colour palette.
type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Strong  lipgloss.Color
	Neutral lipgloss.Color
	Weak    lipgloss.Color
	Border  lipgloss.Color
}

func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Strong:  lipgloss.Color("#A6E3A1"), // Green
		Neutral: lipgloss.Color("#F9E2AF"), // Yellow
		Weak:    lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains the pre-configured lipgloss styles used by Render.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Strong  lipgloss.Style
	Neutral lipgloss.Style
	Weak    lipgloss.Style
	Box     lipgloss.Style
}

func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),
		Heading: lipgloss.NewStyle().
			Bold(true).
			Underline(true),
		Label: lipgloss.NewStyle().
			Width(26),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Strong: lipgloss.NewStyle().
			Foreground(theme.Strong),
		Neutral: lipgloss.NewStyle().
			Foreground(theme.Neutral),
		Weak: lipgloss.NewStyle().
			Foreground(theme.Weak),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}
