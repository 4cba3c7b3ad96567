package drill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/medsim/internal/cases"
)

func TestBuiltinCatalogPassesDrill(t *testing.T) {
	cat, err := cases.Default()
	require.NoError(t, err)

	results, err := Run(context.Background(), cat, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, cat.Len())

	for _, r := range Failed(results) {
		t.Errorf("%s: %s (path %s, %d turns)", r.CaseID, r.Reason, r.Path, r.Turns)
	}
}

func TestDrillReportsUnmatchableDiagnosis(t *testing.T) {
	cat, err := cases.New("1.0.0", []*cases.Case{
		{
			ID:                "bad",
			Specialty:         "general",
			Level:             1,
			Difficulty:        cases.DifficultyEasy,
			Stages:            []string{"Tired."},
			ExpectedDiagnosis: "iron deficiency anemia",
			// Only one keyword: the heuristic can never close the case.
			TreatmentKeywords: []string{"ferrous sulfate"},
		},
	})
	require.NoError(t, err)

	results, err := Run(context.Background(), cat, Options{Parallel: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "treatment plan did not close the case", results[0].Reason)
	assert.Len(t, Failed(results), 1)
}

func TestScript(t *testing.T) {
	c := &cases.Case{
		ExpectedDiagnosis: "acute ischemic stroke",
		TreatmentKeywords: []string{"thrombolysis", "aspirin", "statin"},
	}
	assert.Equal(t, []string{
		"My impression is acute ischemic stroke",
		"Plan: thrombolysis and aspirin",
	}, Script(c))
}

func TestRunHonoursCancelledContext(t *testing.T) {
	cat, err := cases.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, cat, DefaultOptions())
	assert.Error(t, err)
}
