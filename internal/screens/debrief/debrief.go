// Package debrief scores a consult and shows the result.
package debrief

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/session"
	"github.com/abhisek/medsim/internal/ui/components"
	"github.com/abhisek/medsim/internal/ui/layout"
	"github.com/abhisek/medsim/internal/ui/theme"
)

type loadedMsg struct {
	Result *session.SummaryResult
	Err    error
}

// Screen displays the debrief for one session. Loading it records the
// result in the progress ledger.
type Screen struct {
	engine    *session.Engine
	sessionID string
	result    *session.SummaryResult
	errMsg    string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a debrief screen for sessionID.
func New(engine *session.Engine, sessionID string) *Screen {
	return &Screen{engine: engine, sessionID: sessionID}
}

func (s *Screen) Init() tea.Cmd {
	engine, id := s.engine, s.sessionID
	return func() tea.Msg {
		res, err := engine.Debrief(context.Background(), id)
		return loadedMsg{Result: res, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Debrief"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		s.result = msg.Result
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error),
			"\n\n\nDebrief unavailable: "+s.errMsg)
	}
	sum := s.result
	if sum == nil {
		return layout.Centered(width, theme.Hint, "\n\n\nCompiling debrief...")
	}

	var b strings.Builder
	b.WriteString(layout.Centered(width, theme.Title, "MISSION DEBRIEF"))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, theme.Body.Bold(true), "Final diagnosis: "+sum.Diagnosis))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, verdictStyle(sum), verdict(sum)))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(width, theme.Stars.Bold(true), scoring.StarBar(sum.Stars)))
	if sum.BaseStars != sum.Stars {
		b.WriteString("\n")
		b.WriteString(layout.Centered(width, theme.Hint,
			fmt.Sprintf("%d before reveals, %d reveal(s) used", sum.BaseStars, sum.RevealsUsed)))
	}
	if sum.NewBest {
		b.WriteString("\n")
		b.WriteString(layout.Centered(width, theme.Achieved, "New personal best!"))
	}
	b.WriteString("\n\n")

	barWidth := min(width-8, 50)
	for _, row := range []struct {
		label string
		score int
	}{
		{"Accuracy    ", sum.Accuracy},
		{"Thoroughness", sum.Thoroughness},
		{"Efficiency  ", sum.Efficiency},
	} {
		bar := components.NewProgressBar(row.label, float64(row.score)/100, true, barWidth).View()
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(layout.Centered(width, theme.Hint,
		fmt.Sprintf("Turns %d   Hints %d   Reveals %d", sum.Turns, sum.HintsUsed, sum.RevealsUsed)))
	b.WriteString("\n\n")

	fb := lipgloss.NewStyle().Width(min(width-8, 70)).Foreground(theme.Text).Render(sum.Feedback)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, fb))

	return b.String()
}

func verdict(sum *session.SummaryResult) string {
	switch {
	case sum.AcceptedTreatment:
		return "Treatment accepted"
	case sum.DiagnosisCorrect:
		return "Diagnosis confirmed, no treatment accepted"
	case sum.Done:
		return "Case closed"
	}
	return "Consult still open"
}

func verdictStyle(sum *session.SummaryResult) lipgloss.Style {
	if sum.AcceptedTreatment {
		return theme.Achieved
	}
	return lipgloss.NewStyle().Foreground(theme.Accent)
}
