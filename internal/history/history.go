// Package history keeps past run reports in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fjglira/bugzero/internal/domain"
)

//go:embed schema.sql
var schema string

// timeLayout is fixed width so that generated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunSummary is one row of the run list.
type RunSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	Duration    time.Duration  `json:"duration"`
	Summary     domain.Summary `json:"summary"`
}

// Store persists reports.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, domain.NewError("history", path, 0, "failed to create database directory", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewError("history", path, 0, "failed to open database", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, domain.NewError("history", path, 0, "failed to configure database", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.NewError("history", path, 0, "failed to initialize schema", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rep and its entries in one transaction.
func (s *Store) Save(ctx context.Context, rep *domain.Report) error {
	if rep.RunID == "" {
		return domain.NewError("history", rep.Source, 0, "report has no run id", nil)
	}
	skipped, err := json.Marshal(rep.Skipped)
	if err != nil {
		return err
	}
	if rep.Skipped == nil {
		skipped = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError("history", rep.Source, 0, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, source, generated_at, duration_ns, total, passed, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.Name, rep.Source, rep.GeneratedAt.UTC().Format(timeLayout), int64(rep.Duration),
		rep.Summary.Total, rep.Summary.Passed, rep.Summary.Failed, string(skipped))
	if err != nil {
		return domain.NewError("history", rep.Source, 0, "failed to save run", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_steps (run_id, idx, step_number, command, action, locator, value, status, message, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return domain.NewError("history", rep.Source, 0, "failed to prepare step insert", err)
	}
	defer stmt.Close()

	for _, e := range rep.Entries {
		_, err := stmt.ExecContext(ctx, rep.RunID, e.Index, e.Action.StepNumber, e.Action.Command, e.Action.Text,
			e.Action.Locator, e.Action.Value, string(e.Result.Status), e.Result.Message, int64(e.Result.Duration))
		if err != nil {
			return domain.NewError("history", rep.Source, e.Action.StepNumber, "failed to save step", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewError("history", rep.Source, 0, "failed to commit run", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, name, source, generated_at, duration_ns, total, passed, failed
		FROM runs ORDER BY generated_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewError("history", "", 0, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var generatedAt string
		var duration int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &generatedAt, &duration,
			&r.Summary.Total, &r.Summary.Passed, &r.Summary.Failed); err != nil {
			return nil, domain.NewError("history", "", 0, "failed to read run", err)
		}
		if r.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
			return nil, domain.NewError("history", "", 0, fmt.Sprintf("run %s has a bad timestamp", r.ID), err)
		}
		r.Duration = time.Duration(duration)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError("history", "", 0, "failed to list runs", err)
	}
	return runs, nil
}

// Get rebuilds the report of one run. An unknown id yields an error
// wrapping domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.Report, error) {
	rep := &domain.Report{RunID: id}
	var generatedAt, skipped string
	var duration int64
	err := s.db.QueryRowContext(ctx, `
		SELECT name, source, generated_at, duration_ns, total, passed, failed, skipped
		FROM runs WHERE id = ?`, id).
		Scan(&rep.Name, &rep.Source, &generatedAt, &duration,
			&rep.Summary.Total, &rep.Summary.Passed, &rep.Summary.Failed, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewError("history", "", 0, fmt.Sprintf("run %q", id), domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewError("history", "", 0, "failed to load run", err)
	}
	if rep.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
		return nil, domain.NewError("history", "", 0, "run has a bad timestamp", err)
	}
	rep.Duration = time.Duration(duration)
	if err := json.Unmarshal([]byte(skipped), &rep.Skipped); err != nil {
		return nil, domain.NewError("history", "", 0, "run has bad skipped steps", err)
	}
	if len(rep.Skipped) == 0 {
		rep.Skipped = nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, step_number, command, action, locator, value, status, message, duration_ns
		FROM run_steps WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, domain.NewError("history", "", 0, "failed to load steps", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.ReportEntry
		var status string
		var stepDuration int64
		if err := rows.Scan(&e.Index, &e.Action.StepNumber, &e.Action.Command, &e.Action.Text,
			&e.Action.Locator, &e.Action.Value, &status, &e.Result.Message, &stepDuration); err != nil {
			return nil, domain.NewError("history", "", 0, "failed to read step", err)
		}
		e.Result.Status = domain.Status(status)
		e.Result.Duration = time.Duration(stepDuration)
		rep.Entries = append(rep.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError("history", "", 0, "failed to load steps", err)
	}
	return rep, nil
}
