package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: ward monitor greens on a dark console.
var (
	Primary   = lipgloss.Color("#22D3EE") // Monitor Cyan
	Secondary = lipgloss.Color("#4ADE80") // Trace Green
	Accent    = lipgloss.Color("#FBBF24") // Alarm Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#E2E8F0") // Off White
	TextDim   = lipgloss.Color("#64748B") // Slate
	BgDark    = lipgloss.Color("#020617") // Console Black
	BgCard    = lipgloss.Color("#0F172A") // Deep Navy
	Border    = lipgloss.Color("#1E3A5F") // Steel
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Transcript speakers
var (
	Operator = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Patient = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Command = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Achieved = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	Classified = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	Stars = lipgloss.NewStyle().
		Foreground(Accent)
)
