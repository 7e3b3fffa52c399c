package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
    run_id TEXT PRIMARY KEY,
    query TEXT NOT NULL,
    result_count INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS search_results (
    run_id TEXT NOT NULL REFERENCES searches(run_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    result_key TEXT NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    thumbnail TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS conversions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    source TEXT NOT NULL,
    audio_path TEXT,
    status TEXT NOT NULL,
    error TEXT,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id);
CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source);
`

// Store is the sqlite history ledger for search and conversion runs.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	const op = "db.Open"

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.IO(op, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, apperrors.IO(op, err, "failed to open database")
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func configurePragmas(db *sql.DB) error {
	const op = "db.configurePragmas"

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return apperrors.IO(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}
	return nil
}

func execSchema(db *sql.DB) error {
	const op = "db.execSchema"

	return WithTransaction(context.Background(), db, func(tx Executor) error {
		for _, stmt := range strings.Split(schema, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(context.Background(), stmt); err != nil {
				return apperrors.IO(op, err, "failed to execute schema statement")
			}
		}
		return nil
	})
}

type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type TxFn func(tx Executor) error

// WithTransaction commits when fn succeeds and rolls back otherwise,
// including on panic.
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return pkgerrors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, "commit transaction")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSearch stores the run summary and every result entry in order.
func (s *Store) RecordSearch(ctx context.Context, run models.SearchRun, results *models.ResultMap) error {
	const op = "Store.RecordSearch"

	err := WithTransaction(ctx, s.db, func(tx Executor) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO searches (run_id, query, result_count, created_at) VALUES (?, ?, ?, ?)`,
			run.RunID, run.Query, run.ResultCount, run.CreatedAt.UTC(),
		); err != nil {
			return err
		}

		for i, key := range models.Keys(results) {
			entry, _ := results.Get(key)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO search_results (run_id, position, result_key, title, url, thumbnail)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				run.RunID, i, key, entry.Title, entry.URL, entry.Thumbnail,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.IO(op, err, "failed to record search")
	}
	return nil
}

func (s *Store) RecordConversion(ctx context.Context, c models.Conversion) error {
	const op = "Store.RecordConversion"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (run_id, source, audio_path, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Source, nullString(c.AudioPath), string(c.Status), nullString(c.Error), c.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.IO(op, err, "failed to record conversion")
	}
	return nil
}

// ListSearches returns the most recent runs first.
func (s *Store) ListSearches(ctx context.Context, limit int) ([]models.SearchRun, error) {
	const op = "Store.ListSearches"

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, query, result_count, created_at FROM searches
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, apperrors.IO(op, err, "failed to list searches")
	}
	defer rows.Close()

	var runs []models.SearchRun
	for rows.Next() {
		var r models.SearchRun
		if err := rows.Scan(&r.RunID, &r.Query, &r.ResultCount, &r.CreatedAt); err != nil {
			return nil, apperrors.IO(op, err, "failed to scan search")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.IO(op, err, "failed to list searches")
	}
	return runs, nil
}

// SearchResults rebuilds the result map recorded for runID. An unknown run
// is a NotFound error; a run that found nothing yields an empty map.
func (s *Store) SearchResults(ctx context.Context, runID string) (*models.ResultMap, error) {
	const op = "Store.SearchResults"

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM searches WHERE run_id = ?`, runID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(op, nil, "unknown search run "+runID)
	}
	if err != nil {
		return nil, apperrors.IO(op, err, "failed to load search run")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT result_key, title, url, thumbnail FROM search_results
		 WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, apperrors.IO(op, err, "failed to load search results")
	}
	defer rows.Close()

	results := models.NewResultMap()
	for rows.Next() {
		var key string
		var e models.ResultEntry
		if err := rows.Scan(&key, &e.Title, &e.URL, &e.Thumbnail); err != nil {
			return nil, apperrors.IO(op, err, "failed to scan search result")
		}
		results.Set(key, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.IO(op, err, "failed to load search results")
	}
	return results, nil
}

func (s *Store) ListConversions(ctx context.Context, limit int) ([]models.Conversion, error) {
	const op = "Store.ListConversions"

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, audio_path, status, error, created_at FROM conversions
		 ORDER BY created_at DESC, id DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, apperrors.IO(op, err, "failed to list conversions")
	}
	defer rows.Close()

	var out []models.Conversion
	for rows.Next() {
		var (
			c         models.Conversion
			audioPath sql.NullString
			status    string
			errText   sql.NullString
		)
		if err := rows.Scan(&c.RunID, &c.Source, &audioPath, &status, &errText, &c.CreatedAt); err != nil {
			return nil, apperrors.IO(op, err, "failed to scan conversion")
		}
		c.AudioPath = audioPath.String
		c.Status = models.Status(status)
		c.Error = errText.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.IO(op, err, "failed to list conversions")
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 50
	}
	return limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
