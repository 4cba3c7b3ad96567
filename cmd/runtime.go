package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/llm"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/session"
	"github.com/abhisek/medsim/internal/store"
)

// runtime is everything a consult-serving command needs.
type runtime struct {
	store  *store.Store
	engine *session.Engine
	online bool
}

func (r *runtime) Close() error { return r.store.Close() }

// buildRuntime opens the store, loads the ledger, and picks the
// collaborator. Without a configured provider the patient is scripted.
func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()

	catalog, err := cases.Default()
	if err != nil {
		return nil, fmt.Errorf("load case catalog: %w", err)
	}

	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}

	ledger, err := progress.NewLedger(ctx, st.ProgressRepo())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	eventRepo := st.EventRepo()
	var collab session.Collaborator = dialogue.Offline{}
	online := false
	provider, err := llm.NewProviderFromEnv(ctx, eventRepo)
	switch {
	case err == nil:
		collab = dialogue.NewLLM(provider, dialogue.DefaultConfig())
		online = true
		slog.Info("model collaborator ready", "model", provider.ModelID())
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Warn("no LLM provider configured, patient replies are scripted")
	default:
		st.Close()
		return nil, fmt.Errorf("configure LLM provider: %w", err)
	}

	cfg := session.DefaultConfig()
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		cfg.CollaboratorTimeout = d
	}

	engine := session.NewEngine(catalog, session.NewStore(), collab, cfg,
		session.WithLedger(ledger),
		session.WithJournal(eventRepo),
	)
	return &runtime{store: st, engine: engine, online: online}, nil
}
