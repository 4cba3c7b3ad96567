package dialogue

import (
	"context"
	"errors"
	"strings"
)

// ErrOffline is returned by Offline.Evaluate.
var ErrOffline = errors.New("dialogue: evaluator offline")

// Offline plays the patient without a model. The patient repeats the most
// recently disclosed symptom data; plans can only close through the keyword
// heuristic.
type Offline struct{}

func (Offline) Evaluate(context.Context, EvaluateRequest) (*Evaluation, error) {
	return nil, ErrOffline
}

func (Offline) Simulate(_ context.Context, req SimulateRequest) (string, error) {
	if len(req.VisibleStages) == 0 {
		return "", nil
	}
	latest := strings.TrimSpace(req.VisibleStages[len(req.VisibleStages)-1])
	return latest, nil
}
