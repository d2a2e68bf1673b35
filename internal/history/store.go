// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists batch run outcomes in a SQLite ledger so past
// conversions can be inspected without re-parsing logs or report files.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// Run is one recorded batch run.
type Run struct {
	ID        string
	StartedAt time.Time
	InputDir  string
	Backend   types.ConversionBackend
	Device    types.DeviceClass
	Workers   int
	Summary   types.RunSummary
}

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			input_dir TEXT NOT NULL,
			backend TEXT NOT NULL,
			device TEXT,
			workers INTEGER NOT NULL,
			total INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			mean_seconds REAL NOT NULL,
			total_seconds REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			ok INTEGER NOT NULL,
			message TEXT,
			seconds REAL NOT NULL,
			assets INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun inserts a run and its per-item outcomes in one transaction.
func (s *Store) RecordRun(run Run, outcomes []types.Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, input_dir, backend, device, workers,
			total, succeeded, failed, mean_seconds, total_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.InputDir,
		string(run.Backend), string(run.Device), run.Workers,
		run.Summary.Total, run.Summary.Succeeded, run.Summary.Failed,
		run.Summary.MeanSeconds, run.Summary.TotalElapsed.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for _, o := range outcomes {
		_, err = tx.Exec(
			`INSERT INTO items (run_id, name, ok, message, seconds, assets)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, o.Item.Name, o.OK, o.Message, o.Seconds(), o.AssetCount,
		)
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", o.Item.Name, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns recorded runs, newest first, up to limit (20 when 0).
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, input_dir, backend, device, workers,
			total, succeeded, failed, mean_seconds, total_seconds
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, backend, device string
		var totalSeconds float64
		err := rows.Scan(&r.ID, &started, &r.InputDir, &backend, &device, &r.Workers,
			&r.Summary.Total, &r.Summary.Succeeded, &r.Summary.Failed,
			&r.Summary.MeanSeconds, &totalSeconds)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.Backend = types.ConversionBackend(backend)
		r.Device = types.DeviceClass(device)
		r.Summary.TotalElapsed = time.Duration(totalSeconds * float64(time.Second))
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the per-item outcomes recorded for one run, in insertion order.
func (s *Store) Items(runID string) ([]types.Outcome, error) {
	rows, err := s.db.Query(
		`SELECT name, ok, message, seconds, assets
		 FROM items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying items for run %s: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var seconds float64
		if err := rows.Scan(&o.Item.Name, &o.OK, &o.Message, &seconds, &o.AssetCount); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		o.Elapsed = time.Duration(seconds * float64(time.Second))
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
