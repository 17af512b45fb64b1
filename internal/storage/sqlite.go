// Package storage persists run history to SQLite so previous results
// stay queryable across invocations.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Store wraps the run-history database
type Store struct {
	db *sql.DB
}

// Run is one recorded pipeline execution
type Run struct {
	ID         string
	Target     string
	Mode       string
	StartTime  time.Time
	EndTime    time.Time
	Candidates int
	Resolved   int
	Wildcards  int
	Final      int
}

// Open opens (or creates) the database at path. ":memory:" works for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps concurrent readers from blocking future runs
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		mode TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		candidates INTEGER DEFAULT 0,
		resolved INTEGER DEFAULT 0,
		wildcards INTEGER DEFAULT 0,
		final INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time);

	CREATE TABLE IF NOT EXISTS domains (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
		UNIQUE(run_id, domain)
	);
	CREATE INDEX IF NOT EXISTS idx_domains_run ON domains(run_id);
	CREATE INDEX IF NOT EXISTS idx_domains_domain ON domains(domain);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GenerateRunID returns a short unique run identifier
func GenerateRunID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// SaveRun records a completed run and its final domain set in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run, domains []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, target, mode, start_time, end_time, candidates, resolved, wildcards, final)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.Mode, run.StartTime, run.EndTime,
		run.Candidates, run.Resolved, run.Wildcards, run.Final)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO domains (run_id, domain) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range domains {
		if _, err := stmt.ExecContext(ctx, run.ID, d); err != nil {
			return fmt.Errorf("failed to insert domain: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun loads one run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, target, mode, start_time, end_time, candidates, resolved, wildcards, final
		FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Target, &run.Mode, &run.StartTime, &run.EndTime,
			&run.Candidates, &run.Resolved, &run.Wildcards, &run.Final)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// GetDomains returns the final domain set of a run, sorted
func (s *Store) GetDomains(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain FROM domains WHERE run_id = ? ORDER BY domain`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// NewDomains returns domains in run curID that no earlier run for the
// same target had seen.
func (s *Store) NewDomains(ctx context.Context, target, curID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.domain FROM domains d
		JOIN runs r ON r.id = d.run_id
		WHERE d.run_id = ? AND d.domain NOT IN (
			SELECT d2.domain FROM domains d2
			JOIN runs r2 ON r2.id = d2.run_id
			WHERE r2.target = ? AND r2.start_time < r.start_time
		)
		ORDER BY d.domain`, curID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query new domains: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
