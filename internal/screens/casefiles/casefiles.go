// Package casefiles lists the catalog by specialty and opens a consult on
// the chosen case.
package casefiles

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/screens/consult"
	"github.com/abhisek/medsim/internal/session"
	"github.com/abhisek/medsim/internal/ui/layout"
	"github.com/abhisek/medsim/internal/ui/theme"
)

type rowKind int

const (
	rowSpecialtyHeader rowKind = iota
	rowCase
)

type row struct {
	kind      rowKind
	specialty string
	c         *cases.Case
}

// Screen displays the case catalog organized by specialty.
type Screen struct {
	engine       *session.Engine
	rows         []row
	cursor       int
	scrollOffset int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the case file browser.
func New(engine *session.Engine) *Screen {
	cat := engine.Catalog()
	var rows []row
	for _, sp := range cat.Specialties() {
		rows = append(rows, row{kind: rowSpecialtyHeader, specialty: sp})
		for _, c := range cat.All() {
			if c.Specialty == sp {
				rows = append(rows, row{kind: rowCase, specialty: sp, c: c})
			}
		}
	}

	s := &Screen{engine: engine, rows: rows}
	for i, r := range s.rows {
		if r.kind == rowCase {
			s.cursor = i
			break
		}
	}
	return s
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			s.moveCursor(-1)
		case "down", "j":
			s.moveCursor(1)
		case "tab":
			s.jumpSpecialty(1)
		case "shift+tab":
			s.jumpSpecialty(-1)
		case "enter":
			return s, s.open()
		case "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if len(s.rows) == 0 {
		return layout.Centered(width, theme.Hint, "\n\nNo cases in the catalog.")
	}
	s.adjustScroll(height)

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < height; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowSpecialtyHeader:
			lines = append(lines, renderHeader(r.specialty, width))
		case rowCase:
			lines = append(lines, s.renderCase(r, i == s.cursor, width))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Screen) Title() string {
	return "Case Files"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Specialty"},
		{Key: "Enter", Description: "Consult"},
		{Key: "Esc", Description: "Back"},
	}
}

// moveCursor moves the cursor by delta, skipping specialty headers.
func (s *Screen) moveCursor(delta int) {
	for next := s.cursor + delta; next >= 0 && next < len(s.rows); next += delta {
		if s.rows[next].kind == rowCase {
			s.cursor = next
			return
		}
	}
}

// jumpSpecialty moves to the first case of the next (dir > 0) or previous
// specialty.
func (s *Screen) jumpSpecialty(dir int) {
	sp := s.rows[s.cursor].specialty
	var target string
	for i := s.cursor + dir; i >= 0 && i < len(s.rows); i += dir {
		if s.rows[i].kind == rowCase && s.rows[i].specialty != sp {
			target = s.rows[i].specialty
			break
		}
	}
	if target == "" {
		return
	}
	for i, r := range s.rows {
		if r.kind == rowCase && r.specialty == target {
			s.cursor = i
			return
		}
	}
}

// adjustScroll keeps the cursor and its specialty header on screen.
func (s *Screen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	top := s.cursor
	for top > 0 && s.rows[top-1].kind == rowSpecialtyHeader {
		top--
	}
	if top < s.scrollOffset {
		s.scrollOffset = top
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func (s *Screen) open() tea.Cmd {
	r := s.rows[s.cursor]
	if r.kind != rowCase {
		return nil
	}
	next := consult.New(s.engine, r.c.ID)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *Screen) best(c *cases.Case) int {
	if l := s.engine.Ledger(); l != nil {
		return l.Best(progress.Key{Specialty: c.Specialty, Level: c.Level})
	}
	return 0
}

func renderHeader(specialty string, width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Width(width).
		Padding(0, 0, 0, 2).
		Render(strings.ToUpper(specialty))
}

func (s *Screen) renderCase(r row, selected bool, width int) string {
	c := r.c
	nameWidth := max(10, width-40)
	complaint := c.ChiefComplaint
	if len(complaint) > nameWidth {
		complaint = complaint[:nameWidth-1] + "…"
	}

	nameStyle := theme.Unselected
	cursor := "  "
	if selected {
		nameStyle = theme.Selected
		cursor = "▸ "
	}

	return fmt.Sprintf("  %sL%d  %s  %s  %s",
		cursor,
		c.Level,
		nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, complaint)),
		theme.Hint.Render(fmt.Sprintf("%-6s", c.Difficulty)),
		theme.Stars.Render(scoring.StarBar(s.best(c))),
	)
}
