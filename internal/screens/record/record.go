// Package record shows the service record: best stars per specialty and
// level, and the rank they add up to.
package record

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/ui/components"
	"github.com/abhisek/medsim/internal/ui/layout"
	"github.com/abhisek/medsim/internal/ui/theme"
)

type resetDoneMsg struct{ Err error }

// Screen renders the progress grid.
type Screen struct {
	catalog      *cases.Catalog
	ledger       *progress.Ledger
	confirmReset bool
	errMsg       string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the record screen. ledger may be nil when progress is not
// persisted.
func New(catalog *cases.Catalog, ledger *progress.Ledger) *Screen {
	return &Screen{catalog: catalog, ledger: ledger}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Service Record" }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirmReset {
		return []layout.KeyHint{
			{Key: "Y", Description: "Erase record"},
			{Key: "N", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "R", Description: "Reset"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resetDoneMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
	case tea.KeyMsg:
		key := msg.String()
		if s.confirmReset {
			s.confirmReset = false
			if key == "y" || key == "Y" {
				return s, s.reset()
			}
			return s, nil
		}
		switch key {
		case "r", "R":
			if s.ledger != nil {
				s.confirmReset = true
			}
		case "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) reset() tea.Cmd {
	ledger := s.ledger
	return func() tea.Msg {
		return resetDoneMsg{Err: ledger.Reset(context.Background())}
	}
}

func (s *Screen) View(width, height int) string {
	if s.confirmReset {
		return "\n\n\n" + layout.Centered(width, theme.Body.Bold(true), "Erase every recorded star?") +
			"\n\n" + layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), "[Y] Erase") +
			"\n" + layout.Centered(width, theme.Selected, "[N] Keep")
	}

	st := progress.RankFor(0)
	if s.ledger != nil {
		st = s.ledger.Standing()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Title, strings.ToUpper(st.Rank.DisplayName())))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Subtitle,
		fmt.Sprintf("%d stars · next rank at %d", st.Total, st.NextThreshold)))
	b.WriteString("\n\n")
	bar := components.NewProgressBar("", st.Fraction, true, min(width-8, 50)).View()
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderGrid()))

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), s.errMsg))
	}
	return b.String()
}

// renderGrid draws one row per specialty and one column per level.
func (s *Screen) renderGrid() string {
	levels := []int{}
	seen := map[int]bool{}
	for _, c := range s.catalog.All() {
		if !seen[c.Level] {
			seen[c.Level] = true
			levels = append(levels, c.Level)
		}
	}
	slices.Sort(levels)

	const nameWidth = 18
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", nameWidth))
	for _, lv := range levels {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  L%-4d", lv)))
	}
	b.WriteString("\n")

	for _, sp := range s.catalog.Specialties() {
		b.WriteString(theme.Body.Render(fmt.Sprintf("%-*s", nameWidth, sp)))
		offered := map[int]bool{}
		for _, lv := range s.catalog.Levels(sp) {
			offered[lv] = true
		}
		for _, lv := range levels {
			if !offered[lv] {
				b.WriteString(theme.Classified.Render("  -    "))
				continue
			}
			best := 0
			if s.ledger != nil {
				best = s.ledger.Best(progress.Key{Specialty: sp, Level: lv})
			}
			b.WriteString("  ")
			b.WriteString(theme.Stars.Render(scoring.StarBar(best)))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}
