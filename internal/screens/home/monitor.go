package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/ui/theme"
)

// MonitorVariant selects which vitals trace to display.
type MonitorVariant int

const (
	MonitorIdle     MonitorVariant = iota // flat baseline, nothing recorded yet
	MonitorSteady                         // regular rhythm
	MonitorPromoted                       // rank cap reached
)

const traceIdle = `┌──────────────────────────┐
│ HR --  ─────────────────  │
└──────────────────────────┘`

const traceSteady = `┌──────────────────────────┐
│ HR 72  ──╱╲_──╱╲_──╱╲_──  │
└──────────────────────────┘`

const tracePromoted = `┌──────────────────────────┐
│ ★ CHIEF ──╱╲_──╱╲_──╱╲_─  │
└──────────────────────────┘`

// RenderMonitor returns the vitals monitor art for the given variant.
func RenderMonitor(v MonitorVariant) string {
	art, fg := traceIdle, theme.TextDim
	switch v {
	case MonitorSteady:
		art, fg = traceSteady, theme.Secondary
	case MonitorPromoted:
		art, fg = tracePromoted, theme.Accent
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
