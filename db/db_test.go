package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/models"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordSearch(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	results := models.NewResultMap()
	results.Set("output0", models.ResultEntry{Title: "Lofi 1", URL: "https://www.youtube.com/watch?v=a", Thumbnail: "https://img/a"})
	results.Set("output1", models.ResultEntry{Title: "Lofi 2", URL: "https://www.youtube.com/watch?v=b", Thumbnail: "https://img/b"})

	older := models.SearchRun{RunID: "run-1", Query: "jazz", ResultCount: 0, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.RecordSearch(ctx, older, models.NewResultMap()))

	run := models.SearchRun{RunID: "run-2", Query: "lofi beats", ResultCount: 2, CreatedAt: time.Now()}
	require.NoError(t, store.RecordSearch(ctx, run, results))

	runs, err := store.ListSearches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "lofi beats", runs[0].Query)
	assert.Equal(t, 2, runs[0].ResultCount)
	assert.Equal(t, "run-1", runs[1].RunID)

	got, err := store.SearchResults(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, models.Equal(got, results, func(a, b models.ResultEntry) bool { return a == b }))

	empty, err := store.SearchResults(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = store.SearchResults(ctx, "no-such-run")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestRecordSearch_DuplicateRunRollsBack(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	results := models.NewResultMap()
	results.Set("output0", models.ResultEntry{Title: "t", URL: "u", Thumbnail: "th"})
	run := models.SearchRun{RunID: "dup", Query: "q", ResultCount: 1, CreatedAt: time.Now()}

	require.NoError(t, store.RecordSearch(ctx, run, results))
	err := store.RecordSearch(ctx, run, results)
	require.Error(t, err)

	got, err := store.SearchResults(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestRecordConversion(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordConversion(ctx, models.Conversion{
		RunID: "r1", Source: "https://youtu.be/a", AudioPath: "/audio/a.mp3",
		Status: models.StatusCompleted, CreatedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, store.RecordConversion(ctx, models.Conversion{
		RunID: "r1", Source: "https://youtu.be/b",
		Status: models.StatusFailed, Error: "audio extraction failed", CreatedAt: now,
	}))

	got, err := store.ListConversions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "https://youtu.be/b", got[0].Source)
	assert.True(t, got[0].IsFailed())
	assert.Empty(t, got[0].AudioPath)
	assert.Equal(t, "audio extraction failed", got[0].Error)

	assert.Equal(t, models.StatusCompleted, got[1].Status)
	assert.Equal(t, "/audio/a.mp3", got[1].AudioPath)
	assert.Empty(t, got[1].Error)
}

func TestListSearches_Limit(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		run := models.SearchRun{RunID: id, Query: id, CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
		require.NoError(t, store.RecordSearch(ctx, run, models.NewResultMap()))
	}

	runs, err := store.ListSearches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
}

func TestWithTransaction_Rollback(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := WithTransaction(ctx, store.db, func(tx Executor) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO searches (run_id, query, result_count, created_at) VALUES ('x', 'q', 0, ?)`, time.Now())
		require.NoError(t, err)
		_, err = tx.ExecContext(ctx, `INSERT INTO no_such_table VALUES (1)`)
		return err
	})
	require.Error(t, err)

	runs, err := store.ListSearches(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
