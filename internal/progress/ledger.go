// Package progress keeps the best star result per specialty and level and
// maps the total onto a rank.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
)

// Key identifies a ledger entry.
type Key struct {
	Specialty string
	Level     int
}

func (k Key) String() string {
	return k.Specialty + "|" + strconv.Itoa(k.Level)
}

// ParseKey parses the "specialty|level" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	sp, lv, ok := strings.Cut(s, "|")
	if !ok || sp == "" {
		return Key{}, fmt.Errorf("invalid progress key %q", s)
	}
	n, err := strconv.Atoi(lv)
	if err != nil {
		return Key{}, fmt.Errorf("invalid progress key %q: %w", s, err)
	}
	return Key{Specialty: sp, Level: n}, nil
}

// Repo persists ledger entries. Implementations must only ever raise a
// stored value.
type Repo interface {
	LoadProgress(ctx context.Context) (map[string]int, error)
	UpsertProgress(ctx context.Context, key string, stars int) error
	ResetProgress(ctx context.Context) error
}

// Ledger is process-wide and safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	best   map[string]int
	repo   Repo
	logger *slog.Logger
}

// NewLedger creates a ledger, preloading from repo when one is given.
func NewLedger(ctx context.Context, repo Repo) (*Ledger, error) {
	l := &Ledger{
		best:   make(map[string]int),
		repo:   repo,
		logger: slog.Default().With("component", "progress"),
	}
	if repo == nil {
		return l, nil
	}
	loaded, err := repo.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	maps.Copy(l.best, loaded)
	return l, nil
}

// Record stores stars for key if it beats the current best. It reports
// whether the ledger changed. On a persistence error nothing changes.
func (l *Ledger) Record(ctx context.Context, key Key, stars int) (bool, error) {
	k := key.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if stars <= l.best[k] {
		return false, nil
	}
	if l.repo != nil {
		if err := l.repo.UpsertProgress(ctx, k, stars); err != nil {
			return false, fmt.Errorf("record progress %s: %w", k, err)
		}
	}
	l.logger.Info("new best", slog.String("key", k), slog.Int("stars", stars), slog.Int("previous", l.best[k]))
	l.best[k] = stars
	return true, nil
}

// Best returns the stored stars for key, 0 if none.
func (l *Ledger) Best(key Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.best[key.String()]
}

// Snapshot returns a copy of every entry keyed by "specialty|level".
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.best)
}

// Total sums the best stars across all keys.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, v := range l.best {
		total += v
	}
	return total
}

// Standing places the current total on the rank table.
func (l *Ledger) Standing() Standing {
	return RankFor(l.Total())
}

// Reset clears every entry.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.repo != nil {
		if err := l.repo.ResetProgress(ctx); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
	}
	clear(l.best)
	l.logger.Info("progress reset")
	return nil
}
