package consult

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screens/debrief"
	"github.com/abhisek/medsim/internal/session"
)

func newScreen(t *testing.T, caseID string) *Screen {
	t.Helper()
	cat, err := cases.Default()
	if err != nil {
		t.Fatal(err)
	}
	eng := session.NewEngine(cat, session.NewStore(), nil, session.DefaultConfig())
	s := New(eng, caseID)
	started := startCmd(s)()
	s.Update(started)
	return s
}

// startCmd returns the engine start command without the input's blink.
func startCmd(s *Screen) tea.Cmd {
	engine, caseID := s.engine, s.caseID
	return func() tea.Msg {
		res, err := engine.Start(context.Background(), caseID)
		return startedMsg{Result: res, Err: err}
	}
}

// say types text and runs the resulting chat command.
func say(t *testing.T, s *Screen, text string) {
	t.Helper()
	s.input.Model.SetValue(text)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("no command for %q", text)
	}
	if !s.busy {
		t.Error("expected busy while the turn is in flight")
	}
	s.Update(cmd())
}

func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

func TestStartShowsPresentingComplaint(t *testing.T) {
	s := newScreen(t, "neuro_5_stroke")
	if s.start == nil {
		t.Fatalf("session not started: %s", s.errMsg)
	}
	if len(s.transcript) != 1 || !strings.Contains(s.transcript[0].Text, "Sudden weakness on one side") {
		t.Errorf("unexpected opening transcript: %+v", s.transcript)
	}
	if s.Title() != "Consult · neurology L5" {
		t.Errorf("Title = %q", s.Title())
	}
	if !strings.Contains(s.View(100, 30), "OBJECTIVES") {
		t.Error("objective board not rendered")
	}
}

func TestUnknownCaseIsFatal(t *testing.T) {
	s := newScreen(t, "nope")
	if !s.fatal {
		t.Fatal("expected fatal state")
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("any key should pop after a failed start")
	}
}

func TestConsultToDebrief(t *testing.T) {
	s := newScreen(t, "neuro_5_stroke")

	say(t, s, "My impression is acute ischemic stroke")
	if !s.diagnosed || s.done {
		t.Fatalf("diagnosed=%v done=%v after diagnosis", s.diagnosed, s.done)
	}
	last := s.transcript[len(s.transcript)-1]
	if last.Speaker != dialogue.SpeakerCommand {
		t.Errorf("expected a command nudge, got %+v", last)
	}

	say(t, s, "Start thrombolysis and aspirin")
	if !s.done {
		t.Fatal("expected the case to close")
	}
	if s.transcript[len(s.transcript)-2].Speaker != dialogue.SpeakerOperator {
		t.Error("operator line missing from transcript")
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("enter on a closed case should hand over to the debrief")
	}
	if _, ok := msg.Screen.(*debrief.Screen); !ok {
		t.Errorf("replacement is %T", msg.Screen)
	}
}

func TestEmptyMessageIgnored(t *testing.T) {
	s := newScreen(t, "neuro_5_stroke")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || s.busy {
		t.Error("empty prompt should not send")
	}
}

func TestHintAndReveal(t *testing.T) {
	s := newScreen(t, "neuro_5_stroke")

	_, cmd := s.Update(ctrl('h'))
	s.Update(cmd())
	if s.hintsUsed != 1 {
		t.Errorf("hintsUsed = %d", s.hintsUsed)
	}
	if !strings.HasPrefix(s.transcript[len(s.transcript)-1].Text, "INTEL 1/2") {
		t.Errorf("hint line = %q", s.transcript[len(s.transcript)-1].Text)
	}

	hidden := 0
	for _, o := range s.objectives {
		if !o.Visible {
			hidden++
		}
	}
	for i := 0; i < hidden; i++ {
		_, cmd = s.Update(ctrl('r'))
		s.Update(cmd())
	}
	if s.revealsUsed != hidden {
		t.Errorf("revealsUsed = %d, want %d", s.revealsUsed, hidden)
	}
	_, cmd = s.Update(ctrl('r'))
	s.Update(cmd())
	if s.notice != "No classified objectives remain." {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestEscapeConfirms(t *testing.T) {
	s := newScreen(t, "neuro_5_stroke")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil || !s.confirmQuit {
		t.Fatal("esc should ask before abandoning")
	}
	if !strings.Contains(s.View(100, 30), "Abandon this consult?") {
		t.Error("confirm dialog not rendered")
	}

	s.Update(tea.KeyPressMsg{Code: 'n', Text: "n"})
	if s.confirmQuit {
		t.Fatal("n should cancel")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd = s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("y should leave the consult")
	}
}
