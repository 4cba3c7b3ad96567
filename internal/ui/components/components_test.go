package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestMenuSkipsDisabled(t *testing.T) {
	ran := ""
	m := NewMenu([]MenuItem{
		{Label: "LOCKED", Disabled: true},
		{Label: "A", Action: func() tea.Cmd { ran = "A"; return nil }},
		{Label: "B", Disabled: true},
		{Label: "C", Action: func() tea.Cmd { ran = "C"; return nil }},
	})
	if m.Selected != 1 {
		t.Fatalf("Selected = %d, want 1", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Fatalf("Selected after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("down at the end moved to %d", m.Selected)
	}

	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if ran != "C" {
		t.Errorf("enter ran %q, want C", ran)
	}
}

func TestTextInputTake(t *testing.T) {
	in := NewTextInput("say something")
	in.Model.SetValue("  start aspirin  ")
	if got := in.Take(); got != "start aspirin" {
		t.Errorf("Take = %q", got)
	}
	if in.Value() != "" {
		t.Errorf("input not cleared: %q", in.Value())
	}
}

func TestProgressBarClamps(t *testing.T) {
	bar := NewProgressBar("", 1.7, true, 20).View()
	if !strings.Contains(bar, "170%") {
		t.Errorf("percent label missing: %q", bar)
	}
	if NewProgressBar("", -1, false, 20).View() == "" {
		t.Error("empty bar for negative percent")
	}
}
