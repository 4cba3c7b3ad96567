package casefiles

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screens/consult"
	"github.com/abhisek/medsim/internal/session"
)

func newScreen(t *testing.T) *Screen {
	t.Helper()
	cat, err := cases.Default()
	if err != nil {
		t.Fatal(err)
	}
	return New(session.NewEngine(cat, session.NewStore(), nil, session.DefaultConfig()))
}

func TestRowsGroupedBySpecialty(t *testing.T) {
	s := newScreen(t)
	headers, rows := 0, 0
	for _, r := range s.rows {
		if r.kind == rowSpecialtyHeader {
			headers++
		} else {
			rows++
		}
	}
	if headers != 5 || rows != 25 {
		t.Errorf("headers=%d cases=%d, want 5 and 25", headers, rows)
	}
	if s.rows[s.cursor].kind != rowCase {
		t.Error("cursor should start on a case")
	}
}

func TestCursorSkipsHeaders(t *testing.T) {
	s := newScreen(t)
	for i := 0; i < 10; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
		if s.rows[s.cursor].kind != rowCase {
			t.Fatalf("cursor landed on a header at step %d", i)
		}
	}
}

func TestTabJumpsSpecialty(t *testing.T) {
	s := newScreen(t)
	first := s.rows[s.cursor].specialty
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	if s.rows[s.cursor].specialty == first {
		t.Error("tab did not change specialty")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if s.rows[s.cursor].specialty != first {
		t.Errorf("shift+tab landed in %q", s.rows[s.cursor].specialty)
	}
}

func TestEnterOpensConsult(t *testing.T) {
	s := newScreen(t)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected a push")
	}
	if _, ok := msg.Screen.(*consult.Screen); !ok {
		t.Errorf("pushed %T", msg.Screen)
	}
}

func TestViewFitsHeight(t *testing.T) {
	s := newScreen(t)
	for i := 0; i < 20; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	view := s.View(100, 8)
	if got := len(strings.Split(view, "\n")); got > 8 {
		t.Errorf("rendered %d lines into a height of 8", got)
	}
}
