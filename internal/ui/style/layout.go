package style

import (
	"github.com/charmbracelet/lipgloss"
)

var palette = DefaultPalette()

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true)
)

// Layout styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 1)

	ActivePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 1)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(palette.Secondary).
				Bold(true)

	TableRowStyle = lipgloss.NewStyle().
			Foreground(palette.Text)

	TableRowSelectedStyle = lipgloss.NewStyle().
				Foreground(palette.Background).
				Background(palette.Primary)
)

// Text styles
var (
	MutedStyle = lipgloss.NewStyle().Foreground(palette.TextMuted)

	PriceStyle = lipgloss.NewStyle().Foreground(palette.Text).Bold(true)

	UpStyle   = lipgloss.NewStyle().Foreground(palette.Success)
	DownStyle = lipgloss.NewStyle().Foreground(palette.Error)

	WarningStyle   = lipgloss.NewStyle().Foreground(palette.Warning)
	ErrorStyle     = lipgloss.NewStyle().Foreground(palette.Error)
	GraduatedStyle = lipgloss.NewStyle().Foreground(palette.Graduated).Bold(true)
)
