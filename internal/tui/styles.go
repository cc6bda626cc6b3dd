// Package tui renders the interactive application browser.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
const (
	ColorTitle    = lipgloss.Color("63")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("252")
	ColorMuted    = lipgloss.Color("241")
	ColorWarning  = lipgloss.Color("214")
	ColorBorder   = lipgloss.Color("238")
	ColorSelected = lipgloss.Color("57")
	ColorButton   = lipgloss.Color("229")
)

// Shared styles.
//
//nolint:gochecknoglobals // Styles are immutable after init.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTitle)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorValue)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	SelectedCardStyle = CardStyle.
				BorderForeground(ColorSelected)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorButton).
			Background(ColorSelected).
			Padding(0, 2)
)
