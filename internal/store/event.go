package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/medsim/internal/llm"
)

type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

var llmEventColumns = []string{
	"sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, ex llm.Exchange) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := entsql.Dialect(r.drv.Dialect()).
		Insert("llm_events").
		Columns(llmEventColumns...).
		Values(seq, time.Now().UnixMilli(), ex.Provider, ex.Model, ex.Purpose,
			ex.InputTokens, ex.OutputTokens, ex.LatencyMs, ex.Success,
			ex.ErrorMessage, ex.RequestBody, ex.ResponseBody).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := entsql.Dialect(r.drv.Dialect()).
		Select(llmEventColumns...).
		From(entsql.Table("llm_events"))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	applyPaging(sel, opts)

	var out []LLMEvent
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err == nil {
			out = append(out, *e)
		}
		return err
	})
	return out, err
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, sequence int64) (*LLMEvent, error) {
	sel := entsql.Dialect(r.drv.Dialect()).
		Select(llmEventColumns...).
		From(entsql.Table("llm_events")).
		Where(entsql.EQ("sequence", sequence))

	var found *LLMEvent
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var err error
		found, err = scanLLMEvent(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("llm event %d: %w", sequence, ErrNotFound)
	}
	return found, nil
}

func (r *eventRepo) LLMStats(ctx context.Context) ([]LLMStat, error) {
	sel := entsql.Dialect(r.drv.Dialect()).
		Select(
			"purpose", "model",
			entsql.Count("*"),
			"SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)",
			entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"),
			entsql.Avg("latency_ms"),
		).
		From(entsql.Table("llm_events")).
		GroupBy("purpose", "model").
		OrderBy("purpose", "model")

	var out []LLMStat
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var s LLMStat
		if err := rows.Scan(&s.Purpose, &s.Model, &s.Calls, &s.Failures, &s.InputTokens, &s.OutputTokens, &s.AvgLatencyMs); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

var sessionEventColumns = []string{
	"sequence", "timestamp", "session_id", "case_id", "action",
	"turns", "stage", "hints_used", "reveals_used",
	"diagnosis_correct", "done", "stars", "detail",
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, d SessionEventData) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := entsql.Dialect(r.drv.Dialect()).
		Insert("session_events").
		Columns(sessionEventColumns...).
		Values(seq, time.Now().UnixMilli(), d.SessionID, d.CaseID, d.Action,
			d.Turns, d.Stage, d.HintsUsed, d.RevealsUsed,
			d.DiagnosisCorrect, d.Done, d.Stars, d.Detail).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error) {
	sel := entsql.Dialect(r.drv.Dialect()).
		Select(sessionEventColumns...).
		From(entsql.Table("session_events"))
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	applyPaging(sel, opts)

	var out []SessionEvent
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			e  SessionEvent
			ts int64
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.CaseID, &e.Action,
			&e.Turns, &e.Stage, &e.HintsUsed, &e.RevealsUsed,
			&e.DiagnosisCorrect, &e.Done, &e.Stars, &e.Detail); err != nil {
			return err
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
		return nil
	})
	return out, err
}

func applyPaging(sel *entsql.Selector, opts QueryOpts) {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}

func (r *eventRepo) query(ctx context.Context, sel *entsql.Selector, each func(*entsql.Rows) error) error {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(&rows); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
	}
	return rows.Err()
}

func scanLLMEvent(rows *entsql.Rows) (*LLMEvent, error) {
	var (
		e  LLMEvent
		ts int64
	)
	if err := rows.Scan(&e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody); err != nil {
		return nil, err
	}
	e.Timestamp = time.UnixMilli(ts)
	return &e, nil
}
