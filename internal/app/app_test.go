package app

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screens/consult"
	"github.com/abhisek/medsim/internal/screens/home"
	"github.com/abhisek/medsim/internal/session"
)

func newModel(t *testing.T) AppModel {
	t.Helper()
	cat, err := cases.Default()
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := progress.NewLedger(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	eng := session.NewEngine(cat, session.NewStore(), nil, session.DefaultConfig(), session.WithLedger(ledger))
	m := newAppModel(home.Options{Engine: eng, Rand: rand.New(rand.NewPCG(3, 4))})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(AppModel)
}

// drain runs cmd and feeds the resulting messages back into the model.
func drain(m *AppModel, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drain(m, c)
		}
		return
	}
	updated, _ := m.Update(msg)
	*m = updated.(AppModel)
}

func TestViewFramesHomeScreen(t *testing.T) {
	m := newModel(t)
	content := m.render()
	if !strings.Contains(content, "MEDSIM") || !strings.Contains(content, "COMMAND") {
		t.Errorf("header missing from view")
	}
	if !strings.Contains(content, "Intern") {
		t.Error("rank missing from header")
	}
}

func TestTooSmall(t *testing.T) {
	m := newModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(updated.(AppModel).render(), "Console too small") {
		t.Error("expected the min-size message")
	}
}

func TestEscapeGoesToConsultScreen(t *testing.T) {
	m := newModel(t)
	drain(&m, m.router.Push(consult.New(m.opts.Engine, "neuro_5_stroke")))

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		if _, ok := cmd().(router.PopScreenMsg); ok {
			t.Fatal("esc on a consult should not pop directly")
		}
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestEscapePopsOtherScreens(t *testing.T) {
	m := newModel(t)
	m.Update(router.PushScreenMsg{Screen: home.New(m.opts)})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc should pop")
	}
}
