package consult

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/ui/layout"
	"github.com/abhisek/medsim/internal/ui/theme"
)

const boardWidth = 32

func (s *Screen) View(width, height int) string {
	if s.fatal {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error),
			fmt.Sprintf("\n\n\nUnable to open consult: %s\n\nPress any key to go back.", s.errMsg))
	}
	if s.start == nil {
		return layout.Centered(width, theme.Hint, "\n\n\nPaging patient...")
	}
	if s.confirmQuit {
		return renderQuitConfirm(width)
	}

	footer := s.renderPrompt(width)
	bodyHeight := max(1, height-lipgloss.Height(footer)-1)

	logWidth := max(20, width-boardWidth-3)
	log := s.renderTranscript(logWidth, bodyHeight)
	board := s.renderBoard(boardWidth, bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, log, " ", board)
	return body + "\n" + footer
}

// renderTranscript wraps every line to w and shows the window that ends
// s.scroll lines above the newest one.
func (s *Screen) renderTranscript(w, h int) string {
	inner := w - 4
	var lines []string
	for _, t := range s.transcript {
		lines = append(lines, strings.Split(renderTurn(t, inner), "\n")...)
		lines = append(lines, "")
	}
	if s.busy {
		lines = append(lines, theme.Hint.Render("patient is responding..."))
	}

	visible := max(1, h-2)
	s.scroll = min(s.scroll, max(0, len(lines)-visible))
	end := len(lines) - s.scroll
	start := max(0, end-visible)

	return theme.Card.
		Width(w).
		Height(h).
		Render(strings.Join(lines[start:end], "\n"))
}

func renderTurn(t dialogue.Turn, w int) string {
	var label lipgloss.Style
	var who string
	switch t.Speaker {
	case dialogue.SpeakerOperator:
		label, who = theme.Operator, "DOCTOR"
	case dialogue.SpeakerPatient:
		label, who = theme.Patient, "PATIENT"
	default:
		return theme.Command.Width(w).Render(t.Text)
	}
	return lipgloss.NewStyle().Width(w).Render(label.Render(who+": ") + theme.Body.Render(t.Text))
}

func (s *Screen) renderBoard(w, h int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("OBJECTIVES"))
	b.WriteString("\n\n")
	for _, o := range s.objectives {
		b.WriteString(renderObjective(o, w-4))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Stage %d/%d", s.stage, s.start.MaxStage)))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Turns %d  Hints %d  Reveals %d", s.turns, s.hintsUsed, s.revealsUsed)))
	if s.diagnosed {
		b.WriteString("\n")
		b.WriteString(theme.Achieved.Render("Diagnosis confirmed"))
	}

	return theme.Card.Width(w).Height(h).Render(b.String())
}

func renderObjective(o objective.Public, w int) string {
	switch {
	case o.Achieved:
		return theme.Achieved.Width(w).Render("✓ " + o.Label)
	case !o.Visible:
		return theme.Classified.Width(w).Render("▒ CLASSIFIED")
	case o.RevealedByUser:
		return theme.Stars.Width(w).Render("○ " + o.Label)
	default:
		return theme.Body.Width(w).Render("○ " + o.Label)
	}
}

func (s *Screen) renderPrompt(width int) string {
	status := ""
	switch {
	case s.errMsg != "":
		status = lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	case s.notice != "":
		status = theme.Command.Render(s.notice)
	}
	if s.done {
		return status
	}
	s.input.SetWidth(width - 12)
	return status + "\n" + theme.Operator.Render(" > ") + s.input.View()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(layout.Centered(width, theme.Body.Bold(true), "Abandon this consult?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Hint, "Nothing is recorded until you debrief."))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), "[Y] Abandon"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Selected, "[N] Keep going"))
	return b.String()
}
