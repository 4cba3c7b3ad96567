package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Exchange is one journaled request/response pair.
type Exchange struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// Journal stores exchanges. The sqlite event store implements it.
type Journal interface {
	AppendLLMRequest(ctx context.Context, ex Exchange) error
}

// JournalProvider records every Generate call, successful or not.
type JournalProvider struct {
	inner   Provider
	vendor  string
	journal Journal
	logger  *slog.Logger
}

// WithJournal wraps p so each call is appended to j. vendor is the
// configured provider name (anthropic, openai, ...).
func WithJournal(p Provider, vendor string, j Journal) Provider {
	return &JournalProvider{
		inner:   p,
		vendor:  vendor,
		journal: j,
		logger:  slog.Default().With("component", "llm"),
	}
}

func (p *JournalProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := p.inner.Generate(ctx, req)

	ex := Exchange{
		Provider:    p.vendor,
		Model:       p.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ex.Model = resp.Model
		ex.InputTokens = resp.Usage.InputTokens
		ex.OutputTokens = resp.Usage.OutputTokens
		ex.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ex.ErrorMessage = err.Error()
	}

	// The turn's own deadline may already be spent; the journal write must
	// still land.
	if jerr := p.journal.AppendLLMRequest(context.WithoutCancel(ctx), ex); jerr != nil {
		p.logger.Warn("journal write failed", slog.String("purpose", ex.Purpose), slog.Any("error", jerr))
	}
	p.logger.Debug("generate",
		slog.String("purpose", ex.Purpose),
		slog.String("model", ex.Model),
		slog.Int64("latency_ms", ex.LatencyMs),
		slog.Bool("success", ex.Success))
	return resp, err
}

func (p *JournalProvider) ModelID() string {
	return p.inner.ModelID()
}

func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
