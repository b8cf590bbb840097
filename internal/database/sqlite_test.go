package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "koikoi.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func sampleMatch(finished time.Time) MatchRecord {
	return MatchRecord{
		ID:      uuid.New(),
		Seed:    ^uint64(0) - 5,
		Players: [2]string{"You", "CPU"},
		Scores:  [2]int{14, 6},
		Winner:  0,
		Rounds: []RoundRecord{
			{Round: 1, Winner: 0, BasePoints: 7, Points: 14, HighDoubled: true, Yaku: []string{"Ame-Shiko"}},
			{Round: 2, Winner: 1, Draw: true, BasePoints: 6, Points: 6},
		},
		StartedAt:  finished.Add(-10 * time.Minute),
		FinishedAt: finished,
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSaveListRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)

	in := sampleMatch(now)
	require.NoError(t, store.SaveMatch(ctx, in))

	got, err := store.ListMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
}

func TestSaveMatchDuplicate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	rec := sampleMatch(time.Now())

	require.NoError(t, store.SaveMatch(ctx, rec))
	assert.ErrorIs(t, store.SaveMatch(ctx, rec), ErrAlreadyExists)
}

func TestSaveMatchValidation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	rec := sampleMatch(time.Now())
	rec.ID = uuid.Nil
	assert.Error(t, store.SaveMatch(ctx, rec))

	rec = sampleMatch(time.Now())
	rec.Winner = 2
	assert.Error(t, store.SaveMatch(ctx, rec))
}

// TestListMatchesNewestFirst verifies ordering and the limit.
func TestListMatchesNewestFirst(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := range 3 {
		rec := sampleMatch(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, rec.ID)
		require.NoError(t, store.SaveMatch(ctx, rec))
	}

	got, err := store.ListMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)

	_, err = store.ListMatches(ctx, 0)
	assert.Error(t, err)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	store, err := Open(context.Background(), "", ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok, "empty database URL should select SQLite")

	require.NoError(t, store.SaveMatch(context.Background(), sampleMatch(time.Now())))
	got, err := store.ListMatches(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNilStore(t *testing.T) {
	var s *SQLiteStore
	assert.NoError(t, s.Close())
	assert.Error(t, s.SaveMatch(context.Background(), sampleMatch(time.Now())))
}
