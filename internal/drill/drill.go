// Package drill plays a scripted golden consult against every catalog case
// to check that the catalog and the matcher thresholds agree.
package drill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/fuzzy"
	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/session"
)

// Options configures a run.
type Options struct {
	// Parallel bounds concurrent cases; values below 1 mean 1.
	Parallel int
	Matcher  fuzzy.Matcher
}

// DefaultOptions runs four cases at a time with the production matcher.
func DefaultOptions() Options {
	return Options{Parallel: 4, Matcher: fuzzy.Default()}
}

// Result is the outcome for one case.
type Result struct {
	CaseID string
	Passed bool
	Turns  int
	Stars  int
	Path   string // outcome rule of the last turn
	Reason string // why the case failed
}

// Script returns the operator lines of the golden consult: the diagnosis,
// then the first two treatment keywords.
func Script(c *cases.Case) []string {
	lines := []string{"My impression is " + c.DiagnosisPhrases()[0]}
	kws := c.TreatmentKeywords
	if len(kws) > 2 {
		kws = kws[:2]
	}
	return append(lines, "Plan: "+strings.Join(kws, " and "))
}

// Run drills every case in catalog. Each case gets its own session store
// and the offline collaborator, so only the keyword heuristic can close it.
func Run(ctx context.Context, catalog *cases.Catalog, opts Options) ([]Result, error) {
	all := catalog.All()
	results := make([]Result, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallel))
	for i, c := range all {
		g.Go(func() error {
			r, err := runCase(gctx, catalog, c, opts)
			if err != nil {
				return fmt.Errorf("case %s: %w", c.ID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runCase(ctx context.Context, catalog *cases.Catalog, c *cases.Case, opts Options) (Result, error) {
	cfg := session.DefaultConfig()
	if opts.Matcher != (fuzzy.Matcher{}) {
		cfg.Matcher = opts.Matcher
	}
	eng := session.NewEngine(catalog, session.NewStore(), dialogue.Offline{}, cfg)

	st, err := eng.Start(ctx, c.ID)
	if err != nil {
		return Result{}, err
	}

	res := Result{CaseID: c.ID}
	for _, line := range Script(c) {
		out, err := eng.Chat(ctx, st.SessionID, line)
		if err != nil {
			return Result{}, err
		}
		res.Turns = out.Turns
		res.Path = out.Path
		if out.Done {
			break
		}
	}

	sum, err := eng.Summary(ctx, st.SessionID)
	if err != nil {
		return Result{}, err
	}
	res.Stars = sum.Stars

	switch {
	case !sum.DiagnosisCorrect:
		res.Reason = "diagnosis not detected"
	case !sum.Done:
		res.Reason = "treatment plan did not close the case"
	case res.Path != session.PathFastClose:
		res.Reason = "closed by " + res.Path
	case sum.Stars != scoring.MaxStars:
		res.Reason = fmt.Sprintf("%d stars", sum.Stars)
	default:
		res.Passed = true
	}
	if !res.Passed {
		slog.Default().With("component", "drill").Warn("case failed drill",
			slog.String("case_id", c.ID), slog.String("reason", res.Reason))
	}
	return res, nil
}

// Failed filters the failing results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
