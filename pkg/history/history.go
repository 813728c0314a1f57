// Package history records engine runs in a local SQLite database so the
// console and CLI can show what ran, when, and how it ended.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcomes for a finished run.
const (
	OutcomeStopped  = "stopped"  // explicit stop
	OutcomeExited   = "exited"   // child went away on its own
	OutcomeNotReady = "notready" // started but never passed the health gate
)

// Run is one engine launch.
type Run struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	SpecPath  string     `json:"specPath"`
	Port      int        `json:"port"`
	Host      string     `json:"host"`
	StartedAt time.Time  `json:"startedAt"`
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
	Outcome   string     `json:"outcome,omitempty"`
}

// Store persists runs. Safe for concurrent use; database/sql serializes.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	spec_path  TEXT NOT NULL,
	port       INTEGER NOT NULL,
	host       TEXT NOT NULL,
	started_at TEXT NOT NULL,
	stopped_at TEXT,
	outcome    TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Open opens (creating if needed) the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts a new run.
func (s *Store) RecordStart(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, session_id, spec_path, port, host, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.SpecPath, run.Port, run.Host, run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// RecordStop marks a run as finished with the given outcome.
// Unknown run IDs are ignored.
func (s *Store) RecordStop(ctx context.Context, id, outcome string, stoppedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stopped_at = ?, outcome = ? WHERE id = ?`,
		stoppedAt.UTC().Format(time.RFC3339Nano), outcome, id,
	)
	if err != nil {
		return fmt.Errorf("record run stop: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, spec_path, port, host, started_at, stopped_at, outcome
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt string
			stoppedAt sql.NullString
			outcome   sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.SessionID, &run.SpecPath, &run.Port, &run.Host, &startedAt, &stoppedAt, &outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if stoppedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, stoppedAt.String); err == nil {
				run.StoppedAt = &t
			}
		}
		run.Outcome = outcome.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
