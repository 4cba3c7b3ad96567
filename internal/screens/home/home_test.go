package home

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/router"
	"github.com/abhisek/medsim/internal/screens/casefiles"
	"github.com/abhisek/medsim/internal/screens/consult"
	"github.com/abhisek/medsim/internal/screens/record"
	"github.com/abhisek/medsim/internal/session"
)

func newHome(t *testing.T) (*HomeScreen, *progress.Ledger) {
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
	return New(Options{Engine: eng, Rand: rand.New(rand.NewPCG(1, 2))}), ledger
}

func selectAndEnter(t *testing.T, h *HomeScreen, index int) tea.Msg {
	t.Helper()
	for h.menu.Selected < index {
		h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("no command for menu item %d", index)
	}
	return cmd()
}

func TestMenuNavigation(t *testing.T) {
	h, _ := newHome(t)

	msg, ok := selectAndEnter(t, h, 0).(router.PushScreenMsg)
	if !ok {
		t.Fatal("NEW CONSULT should push a screen")
	}
	if _, ok := msg.Screen.(*consult.Screen); !ok {
		t.Errorf("NEW CONSULT pushed %T", msg.Screen)
	}

	msg = selectAndEnter(t, h, 1).(router.PushScreenMsg)
	if _, ok := msg.Screen.(*casefiles.Screen); !ok {
		t.Errorf("CASE FILES pushed %T", msg.Screen)
	}

	msg = selectAndEnter(t, h, 2).(router.PushScreenMsg)
	if _, ok := msg.Screen.(*record.Screen); !ok {
		t.Errorf("SERVICE RECORD pushed %T", msg.Screen)
	}
}

func TestMissionLogDisabledWithoutHistory(t *testing.T) {
	h, _ := newHome(t)
	if !h.menu.Items[3].Disabled {
		t.Error("mission log should be disabled without a history source")
	}
	// Down from SERVICE RECORD skips the disabled item.
	h.menu.Selected = 2
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if h.menu.Selected != 4 {
		t.Errorf("Selected = %d, want 4", h.menu.Selected)
	}
}

func TestRefreshPicksUpNewStars(t *testing.T) {
	h, ledger := newHome(t)
	if h.variant != MonitorIdle {
		t.Errorf("variant = %v, want idle", h.variant)
	}
	if _, err := ledger.Record(context.Background(), progress.Key{Specialty: "neurology", Level: 5}, 3); err != nil {
		t.Fatal(err)
	}
	h.Refresh()
	if h.Standing().Total != 3 || h.cleared != 1 || h.variant != MonitorSteady {
		t.Errorf("standing=%+v cleared=%d variant=%v", h.Standing(), h.cleared, h.variant)
	}
}

func TestViewOfflineBanner(t *testing.T) {
	h, _ := newHome(t)
	view := h.View(120, 40)
	if !strings.Contains(view, "Offline") {
		t.Error("offline banner missing")
	}
	if !strings.Contains(view, "NEW CONSULT") {
		t.Error("menu missing")
	}
}
