package session

import (
	"slices"
	"strings"
	"time"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/scoring"
)

// Phase is the state of the session machine. There is no way out of
// PhaseDone.
type Phase int

const (
	PhaseActive Phase = iota // Accepting chat, stage advancing
	PhaseDone                // Closed; only hints and summaries remain
)

func (p Phase) String() string {
	if p == PhaseDone {
		return "done"
	}
	return "active"
}

// Session is the mutable state of one consult.
type Session struct {
	// ID is the session identifier handed to clients.
	ID string

	// Case is the scenario being played. It is shared and never mutated.
	Case *cases.Case

	// StartedAt is when the session was created.
	StartedAt time.Time

	// Transcript is the append-only conversation.
	Transcript []dialogue.Turn

	// Stage indexes Case.Stages; the patient may disclose stages 0..Stage.
	Stage int

	// Turns counts operator messages.
	Turns int

	// HintsUsed counts hints requested while active. HintIndex is the
	// 1-based index of the last hint delivered.
	HintsUsed int
	HintIndex int

	// RevealsUsed counts successful objective reveals.
	RevealsUsed int

	// DiagnosisCorrect latches once the operator names the diagnosis.
	DiagnosisCorrect bool

	// TreatmentHits is the running count of treatment keyword hits.
	TreatmentHits int

	// AcceptedTreatment is set when the plan is accepted by either path.
	AcceptedTreatment bool

	// StageWhenAccepted is the stage at acceptance, or -1.
	StageWhenAccepted int

	// Done marks the terminal phase.
	Done bool

	// FinalDiagnosis and FinalFeedback are filled on acceptance.
	FinalDiagnosis string
	FinalFeedback  string

	// Scores holds the sub-scores set on acceptance, if any.
	Scores *scoring.SubScores

	// Objectives is the hidden checklist.
	Objectives []objective.Objective
}

func newSession(id string, c *cases.Case, now time.Time) *Session {
	return &Session{
		ID:                id,
		Case:              c,
		StartedAt:         now,
		StageWhenAccepted: -1,
		Objectives:        objective.Build(c),
	}
}

// Phase reports the machine state.
func (s *Session) Phase() Phase {
	if s.Done {
		return PhaseDone
	}
	return PhaseActive
}

// Clone returns a deep copy. Operations mutate a clone and commit it only on
// success.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = slices.Clone(s.Transcript)
	c.Objectives = objective.Clone(s.Objectives)
	if s.Scores != nil {
		sc := *s.Scores
		c.Scores = &sc
	}
	return &c
}

// Key is the progress ledger entry this session counts towards.
func (s *Session) Key() progress.Key {
	return progress.Key{Specialty: s.Case.Specialty, Level: s.Case.Level}
}

// PublicObjectives is the redacted checklist.
func (s *Session) PublicObjectives() []objective.Public {
	return objective.PublicView(s.Objectives)
}

// ScoreInput is the scorer's view of the session.
func (s *Session) ScoreInput() scoring.Input {
	return scoring.Input{
		ExpectedDiagnosis: s.Case.ExpectedDiagnosis,
		DiagnosisCorrect:  s.DiagnosisCorrect,
		AcceptedTreatment: s.AcceptedTreatment,
		Stage:             s.Stage,
		StageWhenAccepted: s.StageWhenAccepted,
		Turns:             s.Turns,
		HintsUsed:         s.HintsUsed,
		RevealsUsed:       s.RevealsUsed,
		Scores:            s.Scores,
		FinalFeedback:     s.FinalFeedback,
	}
}

func (s *Session) say(speaker dialogue.Speaker, text string) dialogue.Turn {
	t := dialogue.Turn{Speaker: speaker, Text: strings.TrimSpace(text)}
	s.Transcript = append(s.Transcript, t)
	return t
}

func (s *Session) advanceStage() {
	s.Stage = min(s.Stage+1, s.Case.MaxStage())
}
