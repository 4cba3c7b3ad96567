package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows    map[string]int
	failErr error
	upserts int
}

func (f *fakeRepo) LoadProgress(context.Context) (map[string]int, error) {
	return f.rows, nil
}

func (f *fakeRepo) UpsertProgress(_ context.Context, key string, stars int) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.upserts++
	f.rows[key] = stars
	return nil
}

func (f *fakeRepo) ResetProgress(context.Context) error {
	clear(f.rows)
	return nil
}

func TestKey(t *testing.T) {
	k := Key{Specialty: "neurology", Level: 3}
	assert.Equal(t, "neurology|3", k.String())

	got, err := ParseKey("neurology|3")
	require.NoError(t, err)
	assert.Equal(t, k, got)

	for _, bad := range []string{"", "neurology", "|3", "neurology|x"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestRecord_Monotonic(t *testing.T) {
	ctx := context.Background()
	l, err := NewLedger(ctx, nil)
	require.NoError(t, err)
	k := Key{"cardiology", 1}

	changed, err := l.Record(ctx, k, 2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = l.Record(ctx, k, 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, l.Best(k))

	changed, _ = l.Record(ctx, k, 2)
	assert.False(t, changed, "equal value is not an improvement")

	_, _ = l.Record(ctx, Key{"respiratory", 2}, 3)
	assert.Equal(t, 5, l.Total())
	assert.Equal(t, map[string]int{"cardiology|1": 2, "respiratory|2": 3}, l.Snapshot())
}

func TestRecord_ZeroNeverStored(t *testing.T) {
	ctx := context.Background()
	l, _ := NewLedger(ctx, nil)
	changed, err := l.Record(ctx, Key{"neurology", 1}, 0)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, l.Snapshot())
}

func TestRecord_PersistsAndDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{rows: map[string]int{"neurology|1": 1}}
	l, err := NewLedger(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Best(Key{"neurology", 1}))

	_, err = l.Record(ctx, Key{"neurology", 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.rows["neurology|1"])

	repo.failErr = errors.New("disk full")
	_, err = l.Record(ctx, Key{"neurology", 2}, 3)
	assert.ErrorIs(t, err, repo.failErr)
	assert.Equal(t, 0, l.Best(Key{"neurology", 2}))
}

func TestRecord_Concurrent(t *testing.T) {
	ctx := context.Background()
	l, _ := NewLedger(ctx, nil)
	k := Key{"gastroenterology", 4}

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(stars int) {
			defer wg.Done()
			_, _ = l.Record(ctx, k, stars)
		}(i % 4)
	}
	wg.Wait()
	assert.Equal(t, 3, l.Best(k))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{rows: map[string]int{"neurology|1": 3}}
	l, _ := NewLedger(ctx, repo)
	require.NoError(t, l.Reset(ctx))
	assert.Empty(t, l.Snapshot())
	assert.Empty(t, repo.rows)
	assert.Equal(t, 0, l.Total())
}

func TestRankFor(t *testing.T) {
	tests := []struct {
		total    int
		rank     Rank
		next     int
		fraction float64
	}{
		{0, RankIntern, 5, 0},
		{4, RankIntern, 5, 0.8},
		{5, RankResident, 15, 0},
		{10, RankResident, 15, 0.5},
		{29, RankRegistrar, 30, 14.0 / 15.0},
		{50, RankChief, 75, 0},
		{75, RankChief, 75, 1},
		{90, RankChief, 75, 1},
	}
	for _, tt := range tests {
		s := RankFor(tt.total)
		assert.Equal(t, tt.rank, s.Rank, "total %d", tt.total)
		assert.Equal(t, tt.next, s.NextThreshold, "total %d", tt.total)
		assert.InDelta(t, tt.fraction, s.Fraction, 1e-9, "total %d", tt.total)
	}
}

func TestRankDisplayName(t *testing.T) {
	assert.Equal(t, "Chief of Medicine", RankChief.DisplayName())
	assert.Equal(t, "mystery", Rank("mystery").DisplayName())
}
