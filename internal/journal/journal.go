// Package journal keeps a sqlite record of every submission run.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Tiliavir/worklog/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ActionFailed is stored for entries that ended up in the failed list.
const ActionFailed = "failed"

const timeLayout = time.RFC3339Nano

// Run summarises one submission of one date.
type Run struct {
	ID         string
	Date       string
	ISODate    string
	StartHour  float64
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Created    int
	Skipped    int
	Planned    int
	Failed     int
}

// RunEntry is the result of one entry within a run.
type RunEntry struct {
	RunID         string
	Position      int
	Project       string
	Subject       string
	Hours         float64
	Action        string
	WorkPackageID int
	TimeEntryID   int
	Error         string
}

// Journal is an open journal database.
type Journal struct {
	db *sql.DB
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the journal at path and applies pending
// migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun stores report and its per-entry results. An empty report.RunID
// is replaced by a new one; the stored Run is returned.
func (j *Journal) RecordRun(ctx context.Context, report model.Report, startedAt, finishedAt time.Time) (Run, error) {
	run := Run{
		ID:         report.RunID,
		Date:       report.Timeline.Date,
		ISODate:    report.Timeline.ISODate,
		StartHour:  report.StartHour,
		DryRun:     report.DryRun,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
		Created:    report.Outcome.Count(model.ActionCreated),
		Skipped:    report.Outcome.Count(model.ActionSkipped),
		Planned:    report.Outcome.Count(model.ActionPlanned),
		Failed:     len(report.Outcome.Failed),
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, date, iso_date, start_hour, dry_run, started_at, finished_at, created, skipped, planned, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Date, run.ISODate, run.StartHour, run.DryRun,
		run.StartedAt.Format(timeLayout), run.FinishedAt.Format(timeLayout),
		run.Created, run.Skipped, run.Planned, run.Failed)
	if err != nil {
		return Run{}, fmt.Errorf("journal: inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_entries (run_id, position, project, subject, hours, action, work_package_id, time_entry_id, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("journal: preparing entry insert: %w", err)
	}
	defer stmt.Close()

	pos := 0
	for _, s := range report.Outcome.Success {
		pos++
		if _, err := stmt.ExecContext(ctx, run.ID, pos, s.Entry.Project, s.Entry.Subject, s.Entry.DurationHours,
			s.Action, s.WorkPackageID, s.TimeEntryID, ""); err != nil {
			return Run{}, fmt.Errorf("journal: inserting entry: %w", err)
		}
	}
	for _, f := range report.Outcome.Failed {
		pos++
		if _, err := stmt.ExecContext(ctx, run.ID, pos, f.Entry.Project, f.Entry.Subject, f.Entry.DurationHours,
			ActionFailed, 0, 0, f.Error); err != nil {
			return Run{}, fmt.Errorf("journal: inserting entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("journal: commit: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, date, iso_date, start_hour, dry_run, started_at, finished_at, created, skipped, planned, failed
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: listing runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Date, &r.ISODate, &r.StartHour, &r.DryRun, &started, &finished,
			&r.Created, &r.Skipped, &r.Planned, &r.Failed); err != nil {
			return nil, fmt.Errorf("journal: scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("journal: run %s: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("journal: run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEntries returns the entries of runID in recorded order.
func (j *Journal) RunEntries(ctx context.Context, runID string) ([]RunEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, position, project, subject, hours, action, work_package_id, time_entry_id, error
		FROM run_entries
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: listing entries: %w", err)
	}
	defer rows.Close()

	entries := []RunEntry{}
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.RunID, &e.Position, &e.Project, &e.Subject, &e.Hours, &e.Action,
			&e.WorkPackageID, &e.TimeEntryID, &e.Error); err != nil {
			return nil, fmt.Errorf("journal: scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
