// Package scoring turns a session's end state into stars, sub-scores and
// the after action report.
package scoring

import (
	"fmt"
	"strings"
)

// MaxStars is the best possible result for a case.
const MaxStars = 3

// Thresholds applied to the base star count.
const (
	longSessionTurns = 12
)

// Default sub-scores used when the evaluator did not grade the session.
const (
	accuracyCorrect     = 100
	accuracyMissed      = 30
	thoroughnessNoHints = 80
	thoroughnessHinted  = 60
	efficiencyDefault   = 70
)

// SubScores are the three 0-100 grades.
type SubScores struct {
	Accuracy     int `json:"score_accuracy"`
	Thoroughness int `json:"score_thoroughness"`
	Efficiency   int `json:"score_efficiency"`
}

// Input is the slice of session state the scorer reads.
type Input struct {
	ExpectedDiagnosis string
	DiagnosisCorrect  bool
	AcceptedTreatment bool
	Stage             int
	StageWhenAccepted int // -1 when treatment was never accepted
	Turns             int
	HintsUsed         int
	RevealsUsed       int
	Scores            *SubScores // evaluator-provided grades, if any
	FinalFeedback     string
}

// Result is the debrief outcome.
type Result struct {
	BaseStars int
	Stars     int
	SubScores
	Feedback string
}

// BaseStars computes stars before reveal spend.
func BaseStars(in Input) int {
	switch {
	case !in.DiagnosisCorrect:
		return 0
	case !in.AcceptedTreatment:
		return 1
	}
	base := MaxStars
	if in.HintsUsed > 0 {
		base--
	}
	if in.Turns > longSessionTurns {
		base--
	}
	return max(base, 1)
}

// Score is deterministic and does not require the session to be finished.
func Score(in Input) Result {
	base := BaseStars(in)
	r := Result{
		BaseStars: base,
		Stars:     max(0, base-in.RevealsUsed),
	}
	if in.Scores != nil {
		r.SubScores = *in.Scores
	} else {
		r.SubScores = defaultSubScores(in)
	}
	r.Feedback = feedback(in, r.Stars)
	return r
}

func defaultSubScores(in Input) SubScores {
	s := SubScores{
		Accuracy:     accuracyMissed,
		Thoroughness: thoroughnessHinted,
		Efficiency:   efficiencyDefault,
	}
	if in.DiagnosisCorrect {
		s.Accuracy = accuracyCorrect
	}
	if in.HintsUsed == 0 {
		s.Thoroughness = thoroughnessNoHints
	}
	return s
}

func feedback(in Input, stars int) string {
	stage := in.Stage
	if in.AcceptedTreatment && in.StageWhenAccepted >= 0 {
		stage = in.StageWhenAccepted
	}

	var b strings.Builder
	b.WriteString("/// AFTER ACTION REPORT ///\n")
	fmt.Fprintf(&b, "TARGET DIAGNOSIS: %s\n", strings.ToUpper(in.ExpectedDiagnosis))
	b.WriteString("PERFORMANCE METRICS:\n")
	fmt.Fprintf(&b, "- SENSORY STAGE: %d\n", stage)
	fmt.Fprintf(&b, "- INTEL REQUESTS: %d\n", in.HintsUsed)
	fmt.Fprintf(&b, "- OBJECTIVE OVERRIDES: %d\n", in.RevealsUsed)
	fmt.Fprintf(&b, "- TRANSMISSION CYCLES: %d\n", in.Turns)
	fmt.Fprintf(&b, "- RATING: %s\n\n", StarBar(stars))
	b.WriteString("TACTICAL ANALYSIS:\n")
	b.WriteString(analysis(in, stars))

	if note := strings.TrimSpace(in.FinalFeedback); note != "" {
		fmt.Fprintf(&b, "\n\nCOMMAND OVERSIGHT NOTE:\n%s", note)
	}
	return b.String()
}

func analysis(in Input, stars int) string {
	switch {
	case stars >= MaxStars:
		return "Operator correctly identified pathology and established containment protocols " +
			"without external intel. Textbook execution."
	case stars == 2:
		return "Pathology identified and containment established. " +
			"Efficiency rating reduced by reliance on external intel or extended transmission cycles."
	case stars == 1 && in.AcceptedTreatment:
		return "Mission complete, but objective overrides and intel requests consumed most of the rating."
	case stars == 1:
		return "Pathology identified, but no treatment protocol was accepted. Mission incomplete."
	case in.DiagnosisCorrect:
		return "Pathology identified, but objective overrides exhausted the rating."
	default:
		return "Pathology not identified. Review the case file and retry the mission."
	}
}

// StarBar renders stars as filled and empty glyphs.
func StarBar(stars int) string {
	stars = max(0, min(stars, MaxStars))
	return strings.Repeat("★", stars) + strings.Repeat("☆", MaxStars-stars)
}
