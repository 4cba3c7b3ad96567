// Package session runs consults: the per-session state machine, the
// evaluation policy that decides how each operator message is answered, and
// the commit-or-discard store behind them.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/fuzzy"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/store"
)

// Collaborator voices the patient and grades plans. It is the only call
// that may block on the network.
type Collaborator interface {
	Evaluate(ctx context.Context, req dialogue.EvaluateRequest) (*dialogue.Evaluation, error)
	Simulate(ctx context.Context, req dialogue.SimulateRequest) (string, error)
}

// Journal receives one event per committed operation.
type Journal interface {
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
}

// Config tunes the engine.
type Config struct {
	// CollaboratorTimeout bounds each Evaluate or Simulate call.
	CollaboratorTimeout time.Duration
	Matcher             fuzzy.Matcher
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		CollaboratorTimeout: 20 * time.Second,
		Matcher:             fuzzy.Default(),
	}
}

// Engine exposes the consult operations. It is safe for concurrent use.
type Engine struct {
	cfg     Config
	catalog *cases.Catalog
	store   *Store
	collab  Collaborator
	journal Journal
	ledger  *progress.Ledger
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithJournal records committed operations to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithLedger lets Debrief record results.
func WithLedger(l *progress.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithIDFunc overrides session id generation.
func WithIDFunc(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine wires an engine. A nil collaborator means dialogue.Offline.
func NewEngine(catalog *cases.Catalog, st *Store, collab Collaborator, cfg Config, opts ...Option) *Engine {
	if collab == nil {
		collab = dialogue.Offline{}
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = DefaultConfig().CollaboratorTimeout
	}
	if cfg.Matcher == (fuzzy.Matcher{}) {
		cfg.Matcher = fuzzy.Default()
	}
	e := &Engine{
		cfg:     cfg,
		catalog: catalog,
		store:   st,
		collab:  collab,
		logger:  slog.Default().With("component", "session"),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the case catalog the engine plays from.
func (e *Engine) Catalog() *cases.Catalog { return e.catalog }

// Ledger returns the progress ledger, or nil.
func (e *Engine) Ledger() *progress.Ledger { return e.ledger }

// StartResult describes a new session. Case is the caller's own copy.
type StartResult struct {
	SessionID  string             `json:"session_id"`
	Case       *cases.Case        `json:"case"`
	MaxStage   int                `json:"max_stage"`
	TotalHints int                `json:"total_hints"`
	Objectives []objective.Public `json:"objectives"`
}

// Start opens a session on caseID.
func (e *Engine) Start(ctx context.Context, caseID string) (*StartResult, error) {
	c, ok := e.catalog.Get(caseID)
	if !ok {
		return nil, errorf(CodeNotFound, "unknown case %q", caseID)
	}
	s := newSession(e.newID(), c, e.now())
	e.store.insert(s)

	e.logger.Info("session started",
		slog.String("session_id", s.ID),
		slog.String("case_id", c.ID),
		slog.String("specialty", c.Specialty),
		slog.Int("level", c.Level),
		slog.String("difficulty", string(c.Difficulty)))
	e.record(ctx, s, "start", "")

	return &StartResult{
		SessionID:  s.ID,
		Case:       c.Clone(),
		MaxStage:   c.MaxStage(),
		TotalHints: len(c.Hints),
		Objectives: s.PublicObjectives(),
	}, nil
}

// ChatResult is the outcome of one operator message.
type ChatResult struct {
	Reply             string             `json:"reply"`
	Messages          []dialogue.Turn    `json:"messages"`
	Path              string             `json:"path"`
	Done              bool               `json:"done"`
	Stage             int                `json:"stage"`
	Turns             int                `json:"turns"`
	DiagnosisCorrect  bool               `json:"diagnosis_correct"`
	AcceptedTreatment bool               `json:"accepted_treatment"`
	TreatmentHits     int                `json:"treatment_hits"`
	HintsUsed         int                `json:"hints_used"`
	Unlocked          []string           `json:"unlocked,omitempty"`
	Objectives        []objective.Public `json:"objectives"`
}

// Chat processes an operator message. Chat on a closed session fails with
// CodeAlreadyTerminal.
func (e *Engine) Chat(ctx context.Context, id, text string) (*ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorf(CodeInvalidInput, "message is empty")
	}
	ent, release, err := e.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if ent.sess.Done {
		return nil, errorf(CodeAlreadyTerminal, "%s", missionComplete)
	}

	s := ent.sess.Clone()
	s.say(dialogue.SpeakerOperator, text)
	s.Turns++
	unlocked := objective.Update(e.cfg.Matcher, s.Objectives, text)

	t := &turn{s: s, text: text}
	e.detect(t)
	path := e.decide(ctx, t)
	if !s.Done {
		s.advanceStage()
	}

	ent.sess = s
	e.logger.Info("chat turn",
		slog.String("session_id", s.ID),
		slog.Int("turn", s.Turns),
		slog.String("path", path),
		slog.Int("hits", t.hits),
		slog.Bool("done", s.Done))
	e.record(ctx, s, "chat", path)

	res := &ChatResult{
		Messages:          t.replies,
		Path:              path,
		Done:              s.Done,
		Stage:             s.Stage,
		Turns:             s.Turns,
		DiagnosisCorrect:  s.DiagnosisCorrect,
		AcceptedTreatment: s.AcceptedTreatment,
		TreatmentHits:     s.TreatmentHits,
		HintsUsed:         s.HintsUsed,
		Unlocked:          unlocked,
		Objectives:        s.PublicObjectives(),
	}
	if n := len(t.replies); n > 0 {
		res.Reply = t.replies[n-1].Text
	}
	return res, nil
}

// HintResult is a delivered hint.
type HintResult struct {
	Hint      string `json:"hint"`
	Index     int    `json:"hint_index"`
	Total     int    `json:"total_hints"`
	HintsUsed int    `json:"hints_used"`
}

// Hint delivers the next hint, repeating the last one when exhausted. A
// closed session still gets hints but they are not counted.
func (e *Engine) Hint(ctx context.Context, id string) (*HintResult, error) {
	ent, release, err := e.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	hints := ent.sess.Case.Hints
	if len(hints) == 0 {
		return &HintResult{Hint: intelExhausted, HintsUsed: ent.sess.HintsUsed}, nil
	}

	s := ent.sess.Clone()
	s.HintIndex = min(s.HintIndex+1, len(hints))
	if !s.Done {
		s.HintsUsed++
	}
	ent.sess = s

	e.logger.Info("hint served",
		slog.String("session_id", s.ID),
		slog.Int("index", s.HintIndex),
		slog.Int("hints_used", s.HintsUsed))
	e.record(ctx, s, "hint", "")

	return &HintResult{
		Hint:      hints[s.HintIndex-1],
		Index:     s.HintIndex,
		Total:     len(hints),
		HintsUsed: s.HintsUsed,
	}, nil
}

// RevealResult is a forced unlock. Revealed is zero when nothing was left.
type RevealResult struct {
	Revealed    objective.Public   `json:"revealed"`
	RevealsUsed int                `json:"reveals_used"`
	Objectives  []objective.Public `json:"objectives"`
}

// Reveal unlocks objectiveID, or the first hidden objective when it is
// empty. When nothing is left to show it returns CodeNoHiddenObjectives
// together with a result holding the board as read under the same lease.
func (e *Engine) Reveal(ctx context.Context, id, objectiveID string) (*RevealResult, error) {
	if objectiveID != "" && !objective.ValidID(objectiveID) {
		return nil, errorf(CodeInvalidInput, "malformed objective id %q", objectiveID)
	}
	ent, release, err := e.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if ent.sess.Done {
		return nil, errorf(CodeAlreadyTerminal, "%s", missionComplete)
	}
	if objectiveID != "" && objective.Find(ent.sess.Objectives, objectiveID) < 0 {
		return nil, errorf(CodeNotFound, "unknown objective %q", objectiveID)
	}

	s := ent.sess.Clone()
	o := objective.RevealNext(s.Objectives, objectiveID)
	if o == nil {
		return &RevealResult{
			RevealsUsed: ent.sess.RevealsUsed,
			Objectives:  ent.sess.PublicObjectives(),
		}, errorf(CodeNoHiddenObjectives, "no hidden objectives left")
	}
	s.RevealsUsed++
	revealed := objective.PublicView([]objective.Objective{*o})[0]
	ent.sess = s

	e.logger.Info("objective revealed",
		slog.String("session_id", s.ID),
		slog.String("objective", o.ID),
		slog.Int("reveals_used", s.RevealsUsed))
	e.record(ctx, s, "reveal", o.ID)

	return &RevealResult{
		Revealed:    revealed,
		RevealsUsed: s.RevealsUsed,
		Objectives:  s.PublicObjectives(),
	}, nil
}

// SummaryResult is the debrief for a session.
type SummaryResult struct {
	SessionID         string `json:"session_id"`
	CaseID            string `json:"case_id"`
	Specialty         string `json:"specialty"`
	Level             int    `json:"level"`
	Diagnosis         string `json:"diagnosis"`
	Done              bool   `json:"done"`
	DiagnosisCorrect  bool   `json:"diagnosis_correct"`
	AcceptedTreatment bool   `json:"accepted_treatment"`
	StageWhenAccepted int    `json:"stage_when_accepted"`
	Turns             int    `json:"turns"`
	HintsUsed         int    `json:"hints_used"`
	RevealsUsed       int    `json:"reveals_used"`
	BaseStars         int    `json:"base_stars"`
	Stars             int    `json:"stars"`
	scoring.SubScores
	Feedback   string             `json:"feedback"`
	Objectives []objective.Public `json:"objectives"`

	// NewBest is set by Debrief when the ledger improved.
	NewBest bool `json:"new_best"`
}

// Summary scores the session as it stands. It changes nothing and may be
// called at any time.
func (e *Engine) Summary(ctx context.Context, id string) (*SummaryResult, error) {
	ent, release, err := e.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	s := ent.sess
	r := scoring.Score(s.ScoreInput())
	stage := s.Stage
	if s.StageWhenAccepted >= 0 {
		stage = s.StageWhenAccepted
	}
	return &SummaryResult{
		SessionID:         s.ID,
		CaseID:            s.Case.ID,
		Specialty:         s.Case.Specialty,
		Level:             s.Case.Level,
		Diagnosis:         strings.ToUpper(s.Case.ExpectedDiagnosis),
		Done:              s.Done,
		DiagnosisCorrect:  s.DiagnosisCorrect,
		AcceptedTreatment: s.AcceptedTreatment,
		StageWhenAccepted: stage,
		Turns:             s.Turns,
		HintsUsed:         s.HintsUsed,
		RevealsUsed:       s.RevealsUsed,
		BaseStars:         r.BaseStars,
		Stars:             r.Stars,
		SubScores:         r.SubScores,
		Feedback:          r.Feedback,
		Objectives:        s.PublicObjectives(),
	}, nil
}

// Debrief is Summary plus recording the stars in the progress ledger.
func (e *Engine) Debrief(ctx context.Context, id string) (*SummaryResult, error) {
	sum, err := e.Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.ledger != nil {
		key := progress.Key{Specialty: sum.Specialty, Level: sum.Level}
		improved, err := e.ledger.Record(ctx, key, sum.Stars)
		if err != nil {
			return nil, err
		}
		sum.NewBest = improved
	}
	e.logger.Info("debrief",
		slog.String("session_id", sum.SessionID),
		slog.String("case_id", sum.CaseID),
		slog.Int("stars", sum.Stars),
		slog.Bool("new_best", sum.NewBest))
	if s, err := e.Snapshot(ctx, id); err == nil {
		e.record(ctx, s, "summary", "")
	}
	return sum, nil
}

// Snapshot returns a copy of the session state.
func (e *Engine) Snapshot(ctx context.Context, id string) (*Session, error) {
	ent, release, err := e.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	return ent.sess.Clone(), nil
}

func (e *Engine) record(ctx context.Context, s *Session, action, detail string) {
	if e.journal == nil {
		return
	}
	stars := 0
	if action == "summary" {
		stars = scoring.Score(s.ScoreInput()).Stars
	}
	err := e.journal.AppendSessionEvent(context.WithoutCancel(ctx), store.SessionEventData{
		SessionID:        s.ID,
		CaseID:           s.Case.ID,
		Action:           action,
		Turns:            s.Turns,
		Stage:            s.Stage,
		HintsUsed:        s.HintsUsed,
		RevealsUsed:      s.RevealsUsed,
		DiagnosisCorrect: s.DiagnosisCorrect,
		Done:             s.Done,
		Stars:            stars,
		Detail:           detail,
	})
	if err != nil {
		e.logger.Warn("session journal write failed", slog.String("session_id", s.ID), slog.Any("error", err))
	}
}
