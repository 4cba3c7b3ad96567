package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ProgressRepo stores the best stars per "specialty|level" key.
type ProgressRepo struct {
	drv *entsql.Driver
}

// LoadProgress returns every stored entry.
func (r *ProgressRepo) LoadProgress(ctx context.Context) (map[string]int, error) {
	query, args := entsql.Dialect(r.drv.Dialect()).
		Select("key", "stars").
		From(entsql.Table("progress")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			stars int
		)
		if err := rows.Scan(&key, &stars); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out[key] = stars
	}
	return out, rows.Err()
}

// UpsertProgress raises the stored value for key to stars. A lower or
// equal value leaves the row untouched.
func (r *ProgressRepo) UpsertProgress(ctx context.Context, key string, stars int) error {
	const q = `INSERT INTO progress (key, stars, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET stars = excluded.stars, updated_at = excluded.updated_at
		WHERE excluded.stars > progress.stars`
	if err := r.drv.Exec(ctx, q, []any{key, stars, time.Now().UnixMilli()}, nil); err != nil {
		return fmt.Errorf("upsert progress %s: %w", key, err)
	}
	return nil
}

// ResetProgress deletes every entry.
func (r *ProgressRepo) ResetProgress(ctx context.Context) error {
	query, args := entsql.Dialect(r.drv.Dialect()).Delete("progress").Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}
