// Package dialogue voices the simulated patient and grades treatment plans.
package dialogue

import (
	"strings"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/scoring"
)

// Speaker identifies who said a line of the transcript.
type Speaker string

const (
	SpeakerOperator Speaker = "operator"
	SpeakerPatient  Speaker = "patient"
	SpeakerCommand  Speaker = "command" // system notices, never sent to the model
)

// Turn is one transcript line.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// EvaluateRequest asks the evaluator to grade the operator's plan.
type EvaluateRequest struct {
	CaseID            string
	ExpectedDiagnosis string
	TreatmentKeywords []string
	HintsUsed         int
	Turns             int
	Transcript        []Turn
}

// Evaluation is the evaluator's verdict.
type Evaluation struct {
	Accepted      bool   `json:"accepted"`
	PatientReply  string `json:"patient_reply"`
	ShortFeedback string `json:"short_feedback"`
	scoring.SubScores
}

// SimulateRequest asks for the patient's next in-character line. Only
// VisibleStages may be disclosed.
type SimulateRequest struct {
	CaseID         string
	Patient        cases.Patient
	ChiefComplaint string
	VisibleStages  []string
	Transcript     []Turn
}

// planTriggers mark a message as a diagnosis or treatment proposal.
var planTriggers = []string{
	"diagnosis",
	"diagnose",
	"impression",
	"i suspect",
	"treatment",
	"plan",
	"prescribe",
	"recommend",
	"start you on",
	"we will give",
	"we will start",
}

// LooksLikePlan reports whether text proposes a diagnosis or treatment:
// it contains a trigger phrase or one of the case's treatment keywords.
func LooksLikePlan(text string, treatmentKeywords []string) bool {
	t := strings.ToLower(text)
	for _, k := range planTriggers {
		if strings.Contains(t, k) {
			return true
		}
	}
	for _, kw := range treatmentKeywords {
		if kw != "" && strings.Contains(t, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FormatTranscript renders turns as a labelled log.
func FormatTranscript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Speaker {
		case SpeakerOperator:
			b.WriteString("DOCTOR (OPERATOR): ")
		case SpeakerPatient:
			b.WriteString("PATIENT (SUBJECT): ")
		default:
			continue
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
