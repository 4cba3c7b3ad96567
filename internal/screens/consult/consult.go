// Package consult is the interactive consult screen: transcript, objective
// board and the operator's prompt.
package consult

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screen"
	"github.com/abhisek/medsim/internal/screens/debrief"
	"github.com/abhisek/medsim/internal/session"
	"github.com/abhisek/medsim/internal/ui/components"
	"github.com/abhisek/medsim/internal/ui/layout"
)

// Screen implements screen.Screen for a live consult.
type Screen struct {
	engine *session.Engine
	caseID string

	start      *session.StartResult
	transcript []dialogue.Turn
	objectives []objective.Public

	stage       int
	turns       int
	hintsUsed   int
	revealsUsed int
	diagnosed   bool
	done        bool

	busy        bool
	confirmQuit bool
	notice      string
	errMsg      string
	fatal       bool

	input  components.TextInput
	scroll int // transcript lines hidden below the window
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.EscapeHandler = (*Screen)(nil)

// New creates a consult screen that opens caseID on Init.
func New(engine *session.Engine, caseID string) *Screen {
	return &Screen{
		engine: engine,
		caseID: caseID,
		input:  components.NewTextInput("Question the patient or state your diagnosis..."),
	}
}

func (s *Screen) Init() tea.Cmd {
	engine, caseID := s.engine, s.caseID
	return tea.Batch(
		func() tea.Msg {
			res, err := engine.Start(context.Background(), caseID)
			return startedMsg{Result: res, Err: err}
		},
		s.input.Init(),
	)
}

func (s *Screen) Title() string {
	if s.start == nil {
		return "Consult"
	}
	c := s.start.Case
	return fmt.Sprintf("Consult · %s L%d", c.Specialty, c.Level)
}

// HandlesEscape keeps Esc inside the screen so an open consult asks first.
func (s *Screen) HandlesEscape() bool { return true }

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.fatal:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Abandon consult"},
			{Key: "N", Description: "Keep going"},
		}
	case s.done:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Debrief"},
			{Key: "Ctrl+H", Description: "Hint"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+H", Description: "Hint"},
		{Key: "Ctrl+R", Description: "Reveal"},
		{Key: "Ctrl+E", Description: "Debrief"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case replyMsg:
		return s.handleReply(msg)
	case hintMsg:
		return s.handleHint(msg)
	case revealMsg:
		return s.handleReveal(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.start != nil && !s.done {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		s.fatal = true
		return s, nil
	}
	s.start = msg.Result
	s.objectives = msg.Result.Objectives
	c := msg.Result.Case
	s.transcript = append(s.transcript, dialogue.Turn{
		Speaker: dialogue.SpeakerCommand,
		Text: fmt.Sprintf("COMMAND AI: Patient %s, %d, %s. Presenting complaint: %s",
			c.Patient.Name, c.Patient.Age, c.Patient.Gender, c.ChiefComplaint),
	})
	return s, nil
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		if session.CodeOf(msg.Err) == session.CodeAlreadyTerminal {
			s.done = true
		}
		return s, nil
	}
	r := msg.Result
	s.transcript = append(s.transcript, r.Messages...)
	s.objectives = r.Objectives
	s.stage = r.Stage
	s.turns = r.Turns
	s.hintsUsed = r.HintsUsed
	s.diagnosed = r.DiagnosisCorrect
	s.done = r.Done
	s.scroll = 0
	switch {
	case r.Done:
		s.notice = "Case closed. Press Enter for your debrief."
	case len(r.Unlocked) > 0:
		s.notice = fmt.Sprintf("%d objective(s) complete", len(r.Unlocked))
	default:
		s.notice = ""
	}
	return s, nil
}

func (s *Screen) handleHint(msg hintMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	r := msg.Result
	s.hintsUsed = r.HintsUsed
	text := "INTEL: " + r.Hint
	if r.Total > 0 {
		text = fmt.Sprintf("INTEL %d/%d: %s", r.Index, r.Total, r.Hint)
	}
	s.transcript = append(s.transcript, dialogue.Turn{Speaker: dialogue.SpeakerCommand, Text: text})
	s.scroll = 0
	return s, nil
}

func (s *Screen) handleReveal(msg revealMsg) (screen.Screen, tea.Cmd) {
	if session.CodeOf(msg.Err) == session.CodeNoHiddenObjectives {
		s.revealsUsed = msg.Result.RevealsUsed
		s.objectives = msg.Result.Objectives
		s.notice = "No classified objectives remain."
		return s, nil
	}
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.revealsUsed = msg.Result.RevealsUsed
	s.objectives = msg.Result.Objectives
	s.notice = "Objective declassified: " + msg.Result.Revealed.Label
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.fatal {
		return s, pop
	}
	if s.start == nil {
		if key == "esc" {
			return s, pop
		}
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, pop
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		if s.done {
			return s, pop
		}
		s.confirmQuit = true
		return s, nil
	case "pgup":
		s.scroll += 5
		return s, nil
	case "pgdown":
		s.scroll = max(0, s.scroll-5)
		return s, nil
	case "ctrl+h":
		return s, s.requestHint()
	case "ctrl+r":
		if s.done {
			return s, nil
		}
		return s, s.requestReveal()
	case "ctrl+e":
		return s, s.toDebrief()
	case "enter":
		if s.done {
			return s, s.toDebrief()
		}
		return s.send()
	}

	if s.done {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// send submits the prompt unless a turn is already in flight.
func (s *Screen) send() (screen.Screen, tea.Cmd) {
	if s.busy || s.input.Value() == "" {
		return s, nil
	}
	text := s.input.Take()
	s.transcript = append(s.transcript, dialogue.Turn{Speaker: dialogue.SpeakerOperator, Text: text})
	s.busy = true
	s.errMsg = ""
	s.notice = ""
	s.scroll = 0

	engine, id := s.engine, s.start.SessionID
	return s, func() tea.Msg {
		res, err := engine.Chat(context.Background(), id, text)
		return replyMsg{Result: res, Err: err}
	}
}

func (s *Screen) requestHint() tea.Cmd {
	engine, id := s.engine, s.start.SessionID
	return func() tea.Msg {
		res, err := engine.Hint(context.Background(), id)
		return hintMsg{Result: res, Err: err}
	}
}

func (s *Screen) requestReveal() tea.Cmd {
	engine, id := s.engine, s.start.SessionID
	return func() tea.Msg {
		res, err := engine.Reveal(context.Background(), id, "")
		return revealMsg{Result: res, Err: err}
	}
}

func (s *Screen) toDebrief() tea.Cmd {
	next := debrief.New(s.engine, s.start.SessionID)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func pop() tea.Msg { return router.PopScreenMsg{} }
