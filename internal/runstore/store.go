// Package runstore persists per-run summaries in SQLite so past
// generation and evaluation runs can be listed and compared.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

type Store struct {
	db *sql.DB
}

// Run is one finished pipeline run. Mode is "generate" or "evaluate";
// Correct is meaningful only for evaluation runs.
type Run struct {
	ID      int64
	Model   string
	Mode    string
	LogPath string

	Processed int
	Skipped   int
	Errored   int
	Correct   int

	TotalTokens int
	Cost        float64

	StartedAt  time.Time
	FinishedAt time.Time
}

// Accuracy is the correct fraction over processed items, 0 when nothing
// was processed.
func (r *Run) Accuracy() float64 {
	if r == nil || r.Processed == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Processed)
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("runstore: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("runstore: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("runstore: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstore: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("runstore: nil db")
	}

	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			mode TEXT NOT NULL,
			log_path TEXT NOT NULL,
			processed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			errored INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			cost REAL NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model_mode ON runs(model, mode)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("runstore: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, run *Run) error {
	if s == nil || s.db == nil {
		return errors.New("runstore: nil store")
	}
	if ctx == nil {
		return errors.New("runstore: nil context")
	}
	if run == nil {
		return errors.New("runstore: nil run")
	}

	model := strings.TrimSpace(run.Model)
	mode := strings.TrimSpace(run.Mode)
	if model == "" || mode == "" {
		return errors.New("runstore: missing model/mode")
	}

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			model, mode, log_path, processed, skipped, errored, correct,
			total_tokens, cost, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, model, mode, strings.TrimSpace(run.LogPath), run.Processed, run.Skipped, run.Errored,
		run.Correct, run.TotalTokens, run.Cost, started.UTC().UnixMilli(), finished.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("runstore: insert run: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		run.ID = id
	}
	run.Model = model
	run.Mode = mode
	run.StartedAt = started
	run.FinishedAt = finished
	return nil
}

// List returns the most recent runs, newest first. An empty mode matches
// both run kinds.
func (s *Store) List(ctx context.Context, mode string, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("runstore: nil store")
	}
	if ctx == nil {
		return nil, errors.New("runstore: nil context")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		SELECT id, model, mode, log_path, processed, skipped, errored, correct,
			total_tokens, cost, started_at, finished_at
		FROM runs`
	args := []any{}
	if mode = strings.TrimSpace(mode); mode != "" {
		query += ` WHERE mode = ?`
		args = append(args, mode)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("runstore: query runs: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var r Run
		var startedMS, finishedMS int64
		if err := rows.Scan(
			&r.ID,
			&r.Model,
			&r.Mode,
			&r.LogPath,
			&r.Processed,
			&r.Skipped,
			&r.Errored,
			&r.Correct,
			&r.TotalTokens,
			&r.Cost,
			&startedMS,
			&finishedMS,
		); err != nil {
			return nil, fmt.Errorf("runstore: scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMS).UTC()
		r.FinishedAt = time.UnixMilli(finishedMS).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: scan rows: %w", err)
	}
	return out, nil
}
