// Package reconcile submits a day's timeline to OpenProject, reusing work
// packages and time entries that already exist.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/openproject"
)

// DefaultStatusID is the status given to work packages created on the fly.
const DefaultStatusID = 7

// Progress statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Remote is the subset of the OpenProject API the pipeline needs.
type Remote interface {
	FindWorkPackageBySubject(ctx context.Context, projectID int, subject string) (*openproject.WorkPackage, error)
	CreateWorkPackage(ctx context.Context, projectID int, subject string, statusID int) (*openproject.WorkPackage, error)
	TimeEntries(ctx context.Context, workPackageID int, spentOn string) ([]openproject.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, in openproject.NewTimeEntry) (*openproject.TimeEntry, error)
}

// Progress is reported before and after each entry. Current is 1-based.
type Progress struct {
	Current int
	Total   int
	Entry   model.ScheduledEntry
	Status  string
	// Error is set when Status is StatusFailed.
	Error string
}

// Options configures a run.
type Options struct {
	// StatusID for new work packages; zero means DefaultStatusID.
	StatusID int
	// DryRun performs lookups only. Entries that would be booked are
	// reported with model.ActionPlanned.
	DryRun     bool
	OnProgress func(Progress)
	Logger     *slog.Logger
}

// Run processes the entries of tl one at a time, in order. Failures are
// recorded per entry and never stop the run. Cancelling ctx stops the run
// before the next entry; a call already in flight is allowed to finish.
func Run(ctx context.Context, remote Remote, tl model.Timeline, opts Options) model.Outcome {
	if opts.StatusID == 0 {
		opts.StatusID = DefaultStatusID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := func(p Progress) {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}

	outcome := model.Outcome{
		Success: []model.Success{},
		Failed:  []model.Failure{},
	}
	callCtx := context.WithoutCancel(ctx)
	total := len(tl.Entries)

	for i, entry := range tl.Entries {
		if err := ctx.Err(); err != nil {
			logger.Warn("submission interrupted",
				"date", tl.Date,
				"processed", i,
				"total", total,
				"error", err,
			)
			break
		}

		report(Progress{Current: i + 1, Total: total, Entry: entry, Status: StatusProcessing})

		s, err := processEntry(callCtx, remote, tl.ISODate, entry, opts)
		if err != nil {
			logger.Error("entry failed",
				"date", tl.Date,
				"subject", entry.Subject,
				"error", err,
			)
			outcome.Failed = append(outcome.Failed, model.Failure{Entry: entry, Error: err.Error()})
			report(Progress{Current: i + 1, Total: total, Entry: entry, Status: StatusFailed, Error: err.Error()})
			continue
		}

		logger.Info("entry processed",
			"date", tl.Date,
			"subject", entry.Subject,
			"action", s.Action,
			"work_package_id", s.WorkPackageID,
			"time_entry_id", s.TimeEntryID,
		)
		outcome.Success = append(outcome.Success, s)
		report(Progress{Current: i + 1, Total: total, Entry: entry, Status: StatusCompleted})
	}

	return outcome
}

func processEntry(ctx context.Context, remote Remote, isoDate string, entry model.ScheduledEntry, opts Options) (model.Success, error) {
	s := model.Success{Entry: entry}

	switch {
	case entry.WorkPackageID != nil:
		s.WorkPackageID = *entry.WorkPackageID

	default:
		wp, err := remote.FindWorkPackageBySubject(ctx, entry.ProjectID, entry.Subject)
		if err != nil {
			return s, fmt.Errorf("looking up work package: %w", err)
		}
		if wp != nil {
			s.WorkPackageID = wp.ID
			break
		}
		if opts.DryRun {
			s.Action = model.ActionPlanned
			s.WorkPackageCreated = true
			s.Message = "would create work package and time entry"
			return s, nil
		}
		created, err := remote.CreateWorkPackage(ctx, entry.ProjectID, entry.Subject, opts.StatusID)
		if err != nil {
			return s, fmt.Errorf("creating work package: %w", err)
		}
		s.WorkPackageID = created.ID
		s.WorkPackageCreated = true
	}

	existing, err := remote.TimeEntries(ctx, s.WorkPackageID, isoDate)
	if err != nil {
		return s, fmt.Errorf("looking up time entries: %w", err)
	}
	if len(existing) > 0 {
		s.Action = model.ActionSkipped
		s.TimeEntryID = existing[0].ID
		s.Message = "time entry already exists"
		return s, nil
	}

	if opts.DryRun {
		s.Action = model.ActionPlanned
		s.Message = "would create time entry"
		return s, nil
	}

	te, err := remote.CreateTimeEntry(ctx, openproject.NewTimeEntry{
		WorkPackageID: s.WorkPackageID,
		ProjectID:     entry.ProjectID,
		ActivityID:    entry.ActivityID,
		Hours:         entry.DurationHours,
		SpentOn:       isoDate,
		Comment:       Comment(entry),
	})
	if err != nil {
		return s, fmt.Errorf("creating time entry: %w", err)
	}
	s.Action = model.ActionCreated
	s.TimeEntryID = te.ID
	return s, nil
}

// Comment is the time entry comment for e: "[<start> - <end>] <subject>".
func Comment(e model.ScheduledEntry) string {
	return fmt.Sprintf("[%s - %s] %s", e.StartTimeFormatted, e.EndTimeFormatted, e.Subject)
}
