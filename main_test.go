package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivendrra/synapse/db"
	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/jsonfile"
	"github.com/shivendrra/synapse/models"
)

func sampleResults() *models.ResultMap {
	results := models.NewResultMap()
	results.Set("output0", models.ResultEntry{Title: "Lofi 1", URL: "https://www.youtube.com/watch?v=b", Thumbnail: "https://img/b"})
	results.Set("output1", models.ResultEntry{Title: "Lofi 2", URL: "https://www.youtube.com/watch?v=a", Thumbnail: "https://img/a"})
	return results
}

func TestPromptQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line", "lofi beats\n", "lofi beats"},
		{"no newline", "jazz", "jazz"},
		{"padded", "  rain sounds  \n", "rain sounds"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt bytes.Buffer
			got, err := promptQuery(strings.NewReader(tt.input), &prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Enter the search string: ", prompt.String())
		})
	}
}

func TestPrintResults_KeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "URLfile.json")
	require.NoError(t, jsonfile.Write(path, sampleResults()))

	var out bytes.Buffer
	require.NoError(t, printResults(&out, path))

	s := out.String()
	assert.Less(t, strings.Index(s, `"output0"`), strings.Index(s, `"output1"`))
	assert.Contains(t, s, `"title": "Lofi 1"`)
}

func TestPrintResults_MissingFile(t *testing.T) {
	err := printResults(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindIO))
}

func TestResultURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "URLfile.json")
	require.NoError(t, jsonfile.Write(path, sampleResults()))

	urls, err := resultURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=b", "https://www.youtube.com/watch?v=a"}, urls)
}

func TestPrintHistory(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.RecordSearch(ctx, models.SearchRun{
		RunID: "run-1", Query: "lofi beats", ResultCount: 2, CreatedAt: time.Now(),
	}, sampleResults()))
	require.NoError(t, store.RecordConversion(ctx, models.Conversion{
		RunID: "run-2", Source: "https://youtu.be/x", Status: models.StatusFailed,
		Error: "audio extraction failed", CreatedAt: time.Now(),
	}))

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, &out, store, 10))

	s := out.String()
	assert.Contains(t, s, "lofi beats")
	assert.Contains(t, s, "run-1")
	assert.Contains(t, s, "audio extraction failed")
	assert.Contains(t, s, "failed")
}

func TestPrintRun(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.RecordSearch(ctx, models.SearchRun{
		RunID: "run-1", Query: "lofi beats", ResultCount: 2, CreatedAt: time.Now(),
	}, sampleResults()))

	var out bytes.Buffer
	require.NoError(t, printRun(ctx, &out, store, "run-1"))
	s := out.String()
	assert.Less(t, strings.Index(s, `"output0"`), strings.Index(s, `"output1"`))
	assert.Contains(t, s, `"title": "Lofi 2"`)

	err = printRun(ctx, &bytes.Buffer{}, store, "run-9")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestReadCmd_LeavesLedgerAlone(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "URLfile.json")
	require.NoError(t, jsonfile.Write(results, sampleResults()))

	dbPath := filepath.Join(dir, "data", "history.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("SEARCH_OUTPUT_PATH", results)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"read"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"title": "Lofi 1"`)
	assert.NoDirExists(t, filepath.Dir(dbPath))
	assert.NoDirExists(t, filepath.Join(dir, "logs"))
}

func TestConvertCmd_RequiresSource(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"convert"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 source")
}

func TestReadCmd_TooManyArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"read", "a.json", "b.json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
