package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/medsim/internal/llm"
)

// Config tunes the model calls.
type Config struct {
	EvaluateMaxTokens   int
	EvaluateTemperature float64
	SimulateMaxTokens   int
	SimulateTemperature float64
}

// DefaultConfig returns the settings used in play.
func DefaultConfig() Config {
	return Config{
		EvaluateMaxTokens:   512,
		EvaluateTemperature: 0.3,
		SimulateMaxTokens:   200,
		SimulateTemperature: 0.3,
	}
}

// LLM is the model-backed collaborator.
type LLM struct {
	provider llm.Provider
	cfg      Config
}

// NewLLM creates a collaborator over provider.
func NewLLM(provider llm.Provider, cfg Config) *LLM {
	return &LLM{provider: provider, cfg: cfg}
}

// Evaluate grades the operator's plan. Any unusable answer is an error; the
// caller decides the fallback.
func (c *LLM) Evaluate(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluate)

	userMsg, err := render(evaluatorUserTemplate, req)
	if err != nil {
		return nil, fmt.Errorf("build evaluate prompt: %w", err)
	}
	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      evaluatorSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      EvaluationSchema,
		MaxTokens:   c.cfg.EvaluateMaxTokens,
		Temperature: c.cfg.EvaluateTemperature,
	})

	var raw []byte
	var invalid *llm.ErrInvalidResponse
	switch {
	case err == nil:
		raw = resp.Content
	case errors.As(err, &invalid) && len(invalid.Content) > 0:
		// Models without native structured output wrap the object in
		// prose or fences.
		raw = invalid.Content
	default:
		return nil, fmt.Errorf("evaluate plan: %w", err)
	}

	cleaned, ok := extractJSON(string(raw))
	if !ok {
		return nil, fmt.Errorf("evaluate plan: no JSON object in response")
	}
	if err := llm.ValidateContent(EvaluationSchema, json.RawMessage(cleaned)); err != nil {
		return nil, fmt.Errorf("evaluate plan: %w", err)
	}
	var ev Evaluation
	if err := json.Unmarshal([]byte(cleaned), &ev); err != nil {
		return nil, fmt.Errorf("parse evaluation: %w", err)
	}
	ev.PatientReply = strings.TrimSpace(ev.PatientReply)
	ev.ShortFeedback = strings.TrimSpace(ev.ShortFeedback)
	return &ev, nil
}

// Simulate returns the patient's next line.
func (c *LLM) Simulate(ctx context.Context, req SimulateRequest) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeSimulate)

	system, err := render(patientSystemTemplate, req)
	if err != nil {
		return "", fmt.Errorf("build patient prompt: %w", err)
	}
	userMsg, err := render(patientUserTemplate, req)
	if err != nil {
		return "", fmt.Errorf("build patient prompt: %w", err)
	}
	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   c.cfg.SimulateMaxTokens,
		Temperature: c.cfg.SimulateTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("simulate patient: %w", err)
	}
	return resp.Text(), nil
}

var (
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractJSON strips code fences and surrounding prose from a model answer
// and returns the outermost JSON object.
func extractJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	obj := objectPattern.FindString(s)
	if obj == "" {
		return "", false
	}
	return obj, true
}
