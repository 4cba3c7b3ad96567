package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func closed() Input {
	return Input{
		ExpectedDiagnosis: "ischemic stroke",
		DiagnosisCorrect:  true,
		AcceptedTreatment: true,
		Stage:             1,
		StageWhenAccepted: 1,
		Turns:             2,
	}
}

func TestBaseStars(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Input)
		want int
	}{
		{"wrong diagnosis", func(in *Input) { in.DiagnosisCorrect = false; in.AcceptedTreatment = false }, 0},
		{"diagnosis only", func(in *Input) { in.AcceptedTreatment = false }, 1},
		{"clean", func(*Input) {}, 3},
		{"hinted", func(in *Input) { in.HintsUsed = 1 }, 2},
		{"many hints same penalty", func(in *Input) { in.HintsUsed = 5 }, 2},
		{"long", func(in *Input) { in.Turns = 13 }, 2},
		{"twelve turns is fine", func(in *Input) { in.Turns = 12 }, 3},
		{"hinted and long floors at 1", func(in *Input) { in.HintsUsed = 2; in.Turns = 40 }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := closed()
			tt.mod(&in)
			assert.Equal(t, tt.want, BaseStars(in))
		})
	}
}

func TestScore_HintCostsExactlyOneStar(t *testing.T) {
	clean := Score(closed())
	in := closed()
	in.HintsUsed = 1
	hinted := Score(in)
	assert.Equal(t, clean.Stars-1, hinted.Stars)
}

func TestScore_RevealSpendNeverNegative(t *testing.T) {
	for reveals := range 10 {
		in := closed()
		in.RevealsUsed = reveals
		r := Score(in)
		assert.GreaterOrEqual(t, r.Stars, 0)
		assert.Equal(t, max(0, 3-reveals), r.Stars)
	}
}

func TestScore_SubScores(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := Score(Input{ExpectedDiagnosis: "x"})
		assert.Equal(t, SubScores{Accuracy: 30, Thoroughness: 80, Efficiency: 70}, r.SubScores)

		r = Score(Input{ExpectedDiagnosis: "x", DiagnosisCorrect: true, HintsUsed: 1})
		assert.Equal(t, SubScores{Accuracy: 100, Thoroughness: 60, Efficiency: 70}, r.SubScores)
	})

	t.Run("evaluator grades win", func(t *testing.T) {
		in := closed()
		in.Scores = &SubScores{Accuracy: 91, Thoroughness: 42, Efficiency: 7}
		r := Score(in)
		assert.Equal(t, *in.Scores, r.SubScores)
	})
}

func TestScore_Feedback(t *testing.T) {
	in := closed()
	in.HintsUsed = 1
	in.RevealsUsed = 1
	in.FinalFeedback = "Good catch on the onset window."
	r := Score(in)

	assert.True(t, strings.HasPrefix(r.Feedback, "/// AFTER ACTION REPORT ///"))
	assert.Contains(t, r.Feedback, "TARGET DIAGNOSIS: ISCHEMIC STROKE")
	assert.Contains(t, r.Feedback, "- INTEL REQUESTS: 1")
	assert.Contains(t, r.Feedback, "- OBJECTIVE OVERRIDES: 1")
	assert.Contains(t, r.Feedback, "- TRANSMISSION CYCLES: 2")
	assert.Contains(t, r.Feedback, "COMMAND OVERSIGHT NOTE:\nGood catch on the onset window.")

	noNote := Score(closed())
	assert.NotContains(t, noNote.Feedback, "COMMAND OVERSIGHT NOTE")
	assert.Equal(t, Score(closed()).Feedback, noNote.Feedback, "feedback must be deterministic")
}

func TestStarBar(t *testing.T) {
	assert.Equal(t, "★★☆", StarBar(2))
	assert.Equal(t, "☆☆☆", StarBar(-4))
	assert.Equal(t, "★★★", StarBar(9))
}
