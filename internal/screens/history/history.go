// Package history lists past consults from the session journal.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/store"
	"github.com/abhisek/medsim/internal/ui/layout"
	"github.com/abhisek/medsim/internal/ui/theme"
)

// Source reads journaled session events, newest first.
type Source interface {
	QuerySessionEvents(ctx context.Context, opts store.QueryOpts) ([]store.SessionEvent, error)
}

// eventLimit bounds how much of the journal the screen loads.
const eventLimit = 500

// Consult is one session's journal entries, newest first.
type Consult struct {
	SessionID string
	CaseID    string
	Events    []store.SessionEvent
}

// Latest returns the newest event.
func (c Consult) Latest() store.SessionEvent { return c.Events[0] }

// Debriefed reports whether the consult was scored, and its stars.
func (c Consult) Debriefed() (int, bool) {
	for _, ev := range c.Events {
		if ev.Action == "summary" {
			return ev.Stars, true
		}
	}
	return 0, false
}

// Group folds newest-first events into consults, ordered by their most
// recent activity.
func Group(events []store.SessionEvent) []Consult {
	idx := map[string]int{}
	var out []Consult
	for _, ev := range events {
		i, ok := idx[ev.SessionID]
		if !ok {
			i = len(out)
			idx[ev.SessionID] = i
			out = append(out, Consult{SessionID: ev.SessionID, CaseID: ev.CaseID})
		}
		out[i].Events = append(out[i].Events, ev)
	}
	return out
}

type loadedMsg struct {
	Consults []Consult
	Err      error
}

// Screen displays past consults.
type Screen struct {
	source   Source
	consults []Consult
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a history screen reading from source.
func New(source Source) *Screen {
	return &Screen{source: source, expanded: make(map[int]bool)}
}

func (s *Screen) Init() tea.Cmd {
	src := s.source
	return func() tea.Msg {
		events, err := src.QuerySessionEvents(context.Background(), store.QueryOpts{Limit: eventLimit})
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Consults: Group(events)}
	}
}

func (s *Screen) Title() string {
	return "Mission Log"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Timeline"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.consults = msg.Consults
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.consults)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error),
			fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return layout.Centered(width, theme.Hint, "\n\n  Loading mission log...")
	}
	if len(s.consults) == 0 {
		return layout.Centered(width, theme.Hint, "\n\n  No consults yet. Report for duty!")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, c := range s.consults {
		last := c.Latest()
		outcome := theme.Hint.Render("not debriefed")
		if stars, ok := c.Debriefed(); ok {
			outcome = theme.Stars.Render(scoring.StarBar(stars))
		}

		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}
		line := style.Render(fmt.Sprintf("%s%s  %-28s  %2d turns  ",
			prefix, last.Timestamp.Format("Jan 02 15:04"), c.CaseID, last.Turns)) + outcome
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")

		if s.expanded[i] {
			for j := len(c.Events) - 1; j >= 0; j-- {
				ev := c.Events[j]
				detail := ev.Action
				if ev.Detail != "" {
					detail += " (" + ev.Detail + ")"
				}
				entry := fmt.Sprintf("    %s  %-24s stage %d  hints %d  reveals %d",
					ev.Timestamp.Format("15:04:05"), detail, ev.Stage, ev.HintsUsed, ev.RevealsUsed)
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(entry)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
