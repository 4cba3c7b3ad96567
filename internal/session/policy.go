package session

import (
	"context"
	"log/slog"

	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/scoring"
)

// Scripted lines.
const (
	nudgeMessage = "COMMAND AI: Diagnosis logged and confirmed. " +
		"Transmit your treatment protocol, Doctor. What is the plan?"
	fastCloseMessage = "COMMAND AI: Diagnosis and treatment protocols verified correct. " +
		"Patient outcome projected: OPTIMAL. " +
		"Mission objectives met. Stand down and access Debrief."
	acceptedNotice     = "/// COMMAND AI: PROTOCOLS ACCEPTED. CASE CLOSED. ///"
	planUnclearReply   = "I'm not sure I understand that plan, Doctor. Can you explain it briefly?"
	patientSilentReply = "I'm feeling a bit overwhelmed, doctor."
	intelExhausted     = "INTEL EXHAUSTED."
	missionComplete    = "/// MISSION STATUS: COMPLETE. Access 'End Mission' for debrief. ///"
)

// Fast-close grading.
const (
	fastCloseAccuracy       = 100
	fastCloseThoroughness   = 90
	fastCloseSlowThorough   = 70
	fastCloseSlowAfterTurns = 10
	hintPenalty             = 25
	turnPenalty             = 10
	freeTurns               = 6
	fastCloseMinHits        = 2
)

// Rule names, reported on ChatResult.Path and in the session journal.
const (
	PathNudge     = "nudge"
	PathFastClose = "fast_close"
	PathEvaluate  = "evaluate"
	PathSimulate  = "simulate"
)

// turn is the working state of one chat message.
type turn struct {
	s    *Session
	text string

	// diagnosisNew is set when this message first named the diagnosis.
	diagnosisNew bool
	// hits counts treatment keywords matched by this message.
	hits int

	replies []dialogue.Turn
}

// rule is one row of the decision table. The first rule whose when holds
// produces the turn's outcome.
type rule struct {
	name  string
	when  func(e *Engine, t *turn) bool
	apply func(ctx context.Context, e *Engine, t *turn)
}

var outcomeRules = []rule{
	{
		name: PathNudge,
		when: func(_ *Engine, t *turn) bool { return t.diagnosisNew && t.hits == 0 },
		apply: func(_ context.Context, _ *Engine, t *turn) {
			t.replies = append(t.replies, t.s.say(dialogue.SpeakerCommand, nudgeMessage))
		},
	},
	{
		name: PathFastClose,
		when: func(_ *Engine, t *turn) bool {
			return t.s.DiagnosisCorrect && t.s.TreatmentHits >= fastCloseMinHits
		},
		apply: func(_ context.Context, _ *Engine, t *turn) { fastClose(t) },
	},
	{
		name: PathEvaluate,
		when: func(_ *Engine, t *turn) bool {
			return dialogue.LooksLikePlan(t.text, t.s.Case.TreatmentKeywords)
		},
		apply: func(ctx context.Context, e *Engine, t *turn) { e.evaluate(ctx, t) },
	},
	{
		name:  PathSimulate,
		when:  func(*Engine, *turn) bool { return true },
		apply: func(ctx context.Context, e *Engine, t *turn) { e.simulate(ctx, t) },
	},
}

// detect runs the matchers that always apply, in order: diagnosis first,
// then treatment keywords once the diagnosis is known. A message that names
// the diagnosis also counts its own treatment keywords.
func (e *Engine) detect(t *turn) {
	s := t.s
	if !s.DiagnosisCorrect && e.cfg.Matcher.TokenOverlapMatch(t.text, s.Case.DiagnosisPhrases()) {
		s.DiagnosisCorrect = true
		t.diagnosisNew = true
	}
	if s.DiagnosisCorrect {
		t.hits = e.cfg.Matcher.CountKeywordHits(t.text, s.Case.TreatmentKeywords)
		s.TreatmentHits += t.hits
	}
}

// decide picks and applies the outcome rule.
func (e *Engine) decide(ctx context.Context, t *turn) string {
	for _, r := range outcomeRules {
		if r.when(e, t) {
			r.apply(ctx, e, t)
			return r.name
		}
	}
	return ""
}

func fastClose(t *turn) {
	s := t.s
	thorough := fastCloseThoroughness
	if s.Turns > fastCloseSlowAfterTurns {
		thorough = fastCloseSlowThorough
	}
	eff := 100 - hintPenalty*s.HintsUsed - turnPenalty*max(0, s.Turns-freeTurns)
	accept(s, &scoring.SubScores{
		Accuracy:     fastCloseAccuracy,
		Thoroughness: thorough,
		Efficiency:   max(0, min(eff, 100)),
	}, "")
	t.replies = append(t.replies, s.say(dialogue.SpeakerCommand, fastCloseMessage))
}

func accept(s *Session, scores *scoring.SubScores, feedback string) {
	s.AcceptedTreatment = true
	s.DiagnosisCorrect = true
	s.Done = true
	s.FinalDiagnosis = s.Case.ExpectedDiagnosis
	s.FinalFeedback = feedback
	s.Scores = scores
	if s.StageWhenAccepted < 0 {
		s.StageWhenAccepted = s.Stage
	}
}

func (e *Engine) evaluate(ctx context.Context, t *turn) {
	s := t.s
	cctx, cancel := e.collaboratorContext(ctx)
	defer cancel()

	ev, err := e.collab.Evaluate(cctx, dialogue.EvaluateRequest{
		CaseID:            s.Case.ID,
		ExpectedDiagnosis: s.Case.ExpectedDiagnosis,
		TreatmentKeywords: s.Case.TreatmentKeywords,
		HintsUsed:         s.HintsUsed,
		Turns:             s.Turns,
		Transcript:        s.Transcript,
	})
	if err != nil {
		e.logger.Warn("evaluator fallback",
			slog.String("code", string(CodeCollaboratorFailure)),
			slog.String("session_id", s.ID),
			slog.Any("error", err))
		t.replies = append(t.replies, s.say(dialogue.SpeakerPatient, planUnclearReply))
		return
	}

	reply := ev.PatientReply
	if reply == "" {
		reply = planUnclearReply
	}
	t.replies = append(t.replies, s.say(dialogue.SpeakerPatient, reply))
	if !ev.Accepted {
		e.logger.Info("plan rejected", slog.String("session_id", s.ID), slog.String("case_id", s.Case.ID))
		return
	}

	scores := ev.SubScores
	accept(s, &scores, ev.ShortFeedback)
	t.replies = append(t.replies, s.say(dialogue.SpeakerCommand, acceptedNotice))
	e.logger.Info("plan accepted",
		slog.String("session_id", s.ID),
		slog.String("case_id", s.Case.ID),
		slog.Int("accuracy", scores.Accuracy),
		slog.Int("thoroughness", scores.Thoroughness),
		slog.Int("efficiency", scores.Efficiency))
}

func (e *Engine) simulate(ctx context.Context, t *turn) {
	s := t.s
	cctx, cancel := e.collaboratorContext(ctx)
	defer cancel()

	reply, err := e.collab.Simulate(cctx, dialogue.SimulateRequest{
		CaseID:         s.Case.ID,
		Patient:        s.Case.Patient,
		ChiefComplaint: s.Case.ChiefComplaint,
		VisibleStages:  s.Case.VisibleStages(s.Stage),
		Transcript:     s.Transcript,
	})
	if err != nil {
		e.logger.Warn("patient fallback",
			slog.String("code", string(CodeCollaboratorFailure)),
			slog.String("session_id", s.ID),
			slog.Any("error", err))
	}
	if err != nil || reply == "" {
		reply = patientSilentReply
	}
	t.replies = append(t.replies, s.say(dialogue.SpeakerPatient, reply))
}

// collaboratorContext detaches the call from the caller's cancellation and
// bounds it by the configured timeout.
func (e *Engine) collaboratorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.cfg.CollaboratorTimeout)
}
