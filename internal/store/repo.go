package store

import (
	"context"
	"time"

	"github.com/abhisek/medsim/internal/llm"
)

// QueryOpts filters and pages journal queries. Results are newest first.
type QueryOpts struct {
	Limit     int    // 0 = unlimited
	After     int64  // sequence > After
	Before    int64  // sequence < Before
	Purpose   string // llm_events only
	SessionID string // session_events only
}

// LLMEvent is a journaled model call.
type LLMEvent struct {
	Sequence  int64
	Timestamp time.Time
	llm.Exchange
}

// LLMStat aggregates model calls per purpose and model.
type LLMStat struct {
	Purpose      string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// SessionEventData is one committed consult operation.
type SessionEventData struct {
	SessionID        string
	CaseID           string
	Action           string // start, chat, hint, reveal, summary
	Turns            int
	Stage            int
	HintsUsed        int
	RevealsUsed      int
	DiagnosisCorrect bool
	Done             bool
	Stars            int
	Detail           string
}

// SessionEvent is a stored SessionEventData.
type SessionEvent struct {
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// EventRepo appends to and reads back the journals.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, ex llm.Exchange) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	GetLLMEvent(ctx context.Context, sequence int64) (*LLMEvent, error)
	LLMStats(ctx context.Context) ([]LLMStat, error)

	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error)
}
