package cases

import (
	"fmt"
	"slices"
)

// Difficulty is the coarse difficulty band of a case.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Patient holds the demographics shown to the operator.
type Patient struct {
	Name   string `yaml:"name" json:"name"`
	Age    int    `yaml:"age" json:"age"`
	Gender string `yaml:"gender" json:"gender"`
}

// Case is a clinical scenario. Cases held by a Catalog are shared and
// read-only; use Clone for a private copy.
type Case struct {
	ID                string     `yaml:"id" json:"id"`
	Specialty         string     `yaml:"specialty" json:"specialty"`
	Level             int        `yaml:"level" json:"level"`
	Difficulty        Difficulty `yaml:"difficulty" json:"difficulty"`
	Patient           Patient    `yaml:"patient" json:"patient"`
	ChiefComplaint    string     `yaml:"chief_complaint" json:"chief_complaint"`
	Stages            []string   `yaml:"stages" json:"-"`
	Hints             []string   `yaml:"hints" json:"-"`
	ExpectedDiagnosis string     `yaml:"expected_diagnosis" json:"-"`
	DiagnosisKeywords []string   `yaml:"diagnosis_keywords,omitempty" json:"-"`
	TreatmentKeywords []string   `yaml:"treatment_keywords" json:"-"`
}

// Clone returns a deep copy of c.
func (c *Case) Clone() *Case {
	out := *c
	out.Stages = slices.Clone(c.Stages)
	out.Hints = slices.Clone(c.Hints)
	out.DiagnosisKeywords = slices.Clone(c.DiagnosisKeywords)
	out.TreatmentKeywords = slices.Clone(c.TreatmentKeywords)
	return &out
}

// MaxStage is the index of the last symptom-disclosure stage.
func (c *Case) MaxStage() int {
	return len(c.Stages) - 1
}

// DiagnosisPhrases returns the phrases that count as naming the diagnosis.
// It falls back to the expected diagnosis when no keywords are listed.
func (c *Case) DiagnosisPhrases() []string {
	if len(c.DiagnosisKeywords) > 0 {
		return c.DiagnosisKeywords
	}
	return []string{c.ExpectedDiagnosis}
}

// VisibleStages returns the symptom data disclosed up to and including stage.
func (c *Case) VisibleStages(stage int) []string {
	stage = max(0, min(stage, c.MaxStage()))
	return c.Stages[:stage+1]
}

func (c *Case) validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("case without id")
	case c.Specialty == "":
		return fmt.Errorf("case %s: missing specialty", c.ID)
	case c.Level < 1:
		return fmt.Errorf("case %s: level must be >= 1, got %d", c.ID, c.Level)
	case !c.Difficulty.Valid():
		return fmt.Errorf("case %s: unknown difficulty %q", c.ID, c.Difficulty)
	case len(c.Stages) == 0:
		return fmt.Errorf("case %s: no stages", c.ID)
	case c.ExpectedDiagnosis == "":
		return fmt.Errorf("case %s: missing expected diagnosis", c.ID)
	}
	return nil
}
