package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-telemetry-pipeline/internal/model"
)

// Store keeps the history of pipeline runs in SQLite
type Store struct {
	db *sql.DB
}

// RunInfo is one row of the runs table
type RunInfo struct {
	ID         string
	InputRoot  string
	OutputRoot string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Open opens (creating if needed) the database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; unit workers share this connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing run history schema: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	// Create tables if not exists
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_root TEXT,
		output_root TEXT,
		status TEXT,
		started_at DATETIME,
		finished_at DATETIME
	);
	`
	unitTable := `
	CREATE TABLE IF NOT EXISTS unit_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		boat TEXT,
		day TEXT,
		status TEXT,
		files INTEGER,
		lines INTEGER,
		records INTEGER,
		malformed INTEGER,
		dropped INTEGER,
		points INTEGER,
		files_written INTEGER,
		signals_skipped INTEGER,
		attempts INTEGER,
		duration_ms INTEGER,
		created_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		boat TEXT,
		day TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{runTable, unitTable, errorTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartRun stores a new run with status "running"
func (s *Store) StartRun(runID, inputRoot, outputRoot string, startedAt time.Time) error {
	_, err := s.db.Exec(`INSERT INTO runs (id, input_root, output_root, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, inputRoot, outputRoot, "running", startedAt.UTC())
	return err
}

// RecordUnit stores the result of one unit, and its error if it failed
func (s *Store) RecordUnit(runID string, r model.UnitResult) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO unit_results
		(run_id, boat, day, status, files, lines, records, malformed, dropped, points, files_written, signals_skipped, attempts, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Boat, r.Day, r.Status, r.Files, r.Lines, r.Records, r.Malformed, r.Dropped, r.Points,
		r.FilesWritten, r.SignalsSkipped, r.Attempts, r.Duration.Milliseconds(), now)
	if err != nil {
		return err
	}
	if r.Error != "" {
		return s.SaveRunError(runID, r.Boat, r.Day, r.Error)
	}
	return nil
}

// SaveRunError records an error for a unit of a run
func (s *Store) SaveRunError(runID, boat, day, message string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO run_errors (run_id, boat, day, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, boat, day, message, now)
	return err
}

// FinishRun sets the final status of a run
func (s *Store) FinishRun(runID, status string, finishedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, status, finishedAt.UTC(), runID)
	return err
}

// ListRuns returns all runs, newest first
func (s *Store) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(`SELECT id, input_root, output_root, status, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var run RunInfo
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.InputRoot, &run.OutputRoot, &run.Status, &run.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunUnits returns the unit results of a run ordered by boat and day
func (s *Store) GetRunUnits(runID string) ([]model.UnitResult, error) {
	rows, err := s.db.Query(`SELECT u.boat, u.day, u.status, u.files, u.lines, u.records, u.malformed, u.dropped,
			u.points, u.files_written, u.signals_skipped, u.attempts, u.duration_ms,
			COALESCE((SELECT e.error_message FROM run_errors e
				WHERE e.run_id = u.run_id AND e.boat = u.boat AND e.day = u.day ORDER BY e.id DESC LIMIT 1), '')
		FROM unit_results u WHERE u.run_id = ? ORDER BY u.boat, u.day`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []model.UnitResult
	for rows.Next() {
		var u model.UnitResult
		var durationMs int64
		if err := rows.Scan(&u.Boat, &u.Day, &u.Status, &u.Files, &u.Lines, &u.Records, &u.Malformed, &u.Dropped,
			&u.Points, &u.FilesWritten, &u.SignalsSkipped, &u.Attempts, &durationMs, &u.Error); err != nil {
			return nil, err
		}
		u.Duration = time.Duration(durationMs) * time.Millisecond
		units = append(units, u)
	}
	return units, rows.Err()
}
