// Package objective tracks the hidden per-session checklist of diagnosis and
// treatment goals.
package objective

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/fuzzy"
)

// Type distinguishes the diagnosis objective from treatment objectives.
type Type string

const (
	TypeDiagnosis Type = "diagnosis"
	TypeTreatment Type = "treatment"
)

// DiagnosisID is the id of the single diagnosis objective.
const DiagnosisID = "diagnosis"

// HiddenLabel replaces the label of objectives the operator has not unlocked.
const HiddenLabel = "[CLASSIFIED]"

var idPattern = regexp.MustCompile(`^(diagnosis|treatment_(0|[1-9][0-9]*))$`)

// Objective is one checklist item. Keywords never leave the server.
// Invariant: RevealedByUser implies Visible and Achieved.
type Objective struct {
	ID             string
	Label          string
	Type           Type
	Keywords       []string
	Visible        bool
	Achieved       bool
	RevealedByUser bool
}

// Public is the redacted view of an Objective.
type Public struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Type           Type   `json:"type"`
	Visible        bool   `json:"visible"`
	Achieved       bool   `json:"achieved"`
	RevealedByUser bool   `json:"revealed_by_user"`
}

// TreatmentID returns the objective id for the i-th treatment keyword.
func TreatmentID(i int) string {
	return "treatment_" + strconv.Itoa(i)
}

// ValidID reports whether id is syntactically an objective id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Build creates the checklist for a case: the diagnosis objective first,
// then one treatment objective per treatment keyword in catalog order.
func Build(c *cases.Case) []Objective {
	objs := make([]Objective, 0, 1+len(c.TreatmentKeywords))
	objs = append(objs, Objective{
		ID:       DiagnosisID,
		Label:    c.ExpectedDiagnosis,
		Type:     TypeDiagnosis,
		Keywords: append([]string(nil), c.DiagnosisPhrases()...),
	})
	for i, kw := range c.TreatmentKeywords {
		objs = append(objs, Objective{
			ID:       TreatmentID(i),
			Label:    kw,
			Type:     TypeTreatment,
			Keywords: []string{kw},
		})
	}
	return objs
}

// Update unlocks every unachieved objective whose keywords appear in text.
// Achieved objectives are never touched again. It returns the ids unlocked.
func Update(m fuzzy.Matcher, objs []Objective, text string) []string {
	var unlocked []string
	for i := range objs {
		o := &objs[i]
		if o.Achieved {
			continue
		}
		if m.TokenOverlapMatch(text, o.Keywords) {
			o.Achieved = true
			o.Visible = true
			unlocked = append(unlocked, o.ID)
		}
	}
	return unlocked
}

// PublicView strips keywords and withholds labels of hidden objectives.
func PublicView(objs []Objective) []Public {
	out := make([]Public, len(objs))
	for i, o := range objs {
		label := HiddenLabel
		if o.Visible {
			label = o.Label
		}
		out[i] = Public{
			ID:             o.ID,
			Label:          label,
			Type:           o.Type,
			Visible:        o.Visible,
			Achieved:       o.Achieved,
			RevealedByUser: o.RevealedByUser,
		}
	}
	return out
}

// Find returns the index of the objective with id, or -1.
func Find(objs []Objective, id string) int {
	for i := range objs {
		if objs[i].ID == id {
			return i
		}
	}
	return -1
}

// RevealNext force-unlocks an objective. With an empty id it picks the first
// hidden objective in checklist order; otherwise it picks id if still hidden.
// It returns nil when nothing was revealed.
func RevealNext(objs []Objective, id string) *Objective {
	idx := -1
	if id != "" {
		if i := Find(objs, id); i >= 0 && !objs[i].Visible {
			idx = i
		}
	} else {
		for i := range objs {
			if !objs[i].Visible {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil
	}
	o := &objs[idx]
	o.Visible = true
	o.Achieved = true
	o.RevealedByUser = true
	return o
}

// Hidden counts objectives not yet visible.
func Hidden(objs []Objective) int {
	n := 0
	for _, o := range objs {
		if !o.Visible {
			n++
		}
	}
	return n
}

// Clone deep-copies a checklist.
func Clone(objs []Objective) []Objective {
	out := make([]Objective, len(objs))
	for i, o := range objs {
		o.Keywords = append([]string(nil), o.Keywords...)
		out[i] = o
	}
	return out
}

func (o Objective) String() string {
	return fmt.Sprintf("%s(%s visible=%t achieved=%t)", o.ID, o.Type, o.Visible, o.Achieved)
}
