// Package home is the console's landing screen.
package home

import (
	"math/rand/v2"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/screens/casefiles"
	"github.com/abhisek/medsim/internal/screens/consult"
	"github.com/abhisek/medsim/internal/screens/history"
	"github.com/abhisek/medsim/internal/screens/record"
	"github.com/abhisek/medsim/internal/session"
	"github.com/abhisek/medsim/internal/ui/components"
)

// Options wires the home screen to the rest of the app.
type Options struct {
	Engine  *session.Engine
	History history.Source // nil hides the mission log
	Online  bool           // false when the patient is scripted
	Rand    *rand.Rand
}

// HomeScreen is the main menu.
type HomeScreen struct {
	opts     Options
	menu     components.Menu
	labels   []string
	disabled map[int]bool
	standing progress.Standing
	cleared  int
	variant  MonitorVariant
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ router.Refresher = (*HomeScreen)(nil)

// New creates a HomeScreen.
func New(opts Options) *HomeScreen {
	h := &HomeScreen{opts: opts}
	h.labels = []string{"NEW CONSULT", "CASE FILES", "SERVICE RECORD", "MISSION LOG", "STAND DOWN"}
	h.disabled = map[int]bool{3: opts.History == nil}

	items := []components.MenuItem{
		{Label: h.labels[0], Action: h.newConsult},
		{Label: h.labels[1], Action: func() tea.Cmd {
			return push(casefiles.New(opts.Engine))
		}},
		{Label: h.labels[2], Action: func() tea.Cmd {
			return push(record.New(opts.Engine.Catalog(), opts.Engine.Ledger()))
		}},
		{Label: h.labels[3], Disabled: h.disabled[3], Action: func() tea.Cmd {
			return push(history.New(opts.History))
		}},
		{Label: h.labels[4], Action: func() tea.Cmd { return tea.Quit }},
	}
	h.menu = components.NewMenu(items)
	h.loadStanding()
	return h
}

// newConsult opens a random case.
func (h *HomeScreen) newConsult() tea.Cmd {
	c, err := h.opts.Engine.Catalog().Pick(cases.Filter{}, h.opts.Rand)
	if err != nil {
		h.errMsg = err.Error()
		return nil
	}
	return push(consult.New(h.opts.Engine, c.ID))
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

// loadStanding snapshots the ledger for the stats bar.
func (h *HomeScreen) loadStanding() {
	h.standing = progress.RankFor(0)
	h.cleared = 0
	if l := h.opts.Engine.Ledger(); l != nil {
		h.standing = l.Standing()
		for _, stars := range l.Snapshot() {
			if stars > 0 {
				h.cleared++
			}
		}
	}
	switch {
	case h.standing.Total >= progress.GlobalCap:
		h.variant = MonitorPromoted
	case h.standing.Total > 0:
		h.variant = MonitorSteady
	default:
		h.variant = MonitorIdle
	}
}

// Standing returns the career standing shown in the stats bar.
func (h *HomeScreen) Standing() progress.Standing { return h.standing }

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

// Refresh reloads the stats when the player returns from a consult.
func (h *HomeScreen) Refresh() tea.Cmd {
	h.errMsg = ""
	h.loadStanding()
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height excludes header and footer; add them back to judge the terminal.
	compact := height+8 < 30 || width < 100
	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, RenderMonitor(h.variant))
	}
	sections = append(sections, renderStatsBar(h.standing, h.cleared, h.opts.Engine.Catalog().Len(), cw, compact))
	if !h.opts.Online {
		sections = append(sections, renderOfflineBanner(cw))
	}
	if h.errMsg != "" {
		sections = append(sections, h.errMsg)
	}
	sections = append(sections, renderMenu(h.labels, h.menu.Selected, h.disabled, cw, compact))

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Command"
}
