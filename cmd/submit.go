package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/journal"
	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/reconcile"
	"github.com/Tiliavir/worklog/internal/storage"
	"github.com/Tiliavir/worklog/internal/tui"
)

var (
	submitStarts    map[string]string
	submitStartHour float64
	submitDates     []string
	submitYes       bool
	submitDryRun    bool
	submitProgress  bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Book the entries of a work-log document in OpenProject",
	Long: `Validate the document, confirm the start hour of every date, then create
the missing work packages and time entries. Entries that are already booked
for their date are skipped, so running submit twice is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringToStringVar(&submitStarts, "start", nil, "Start hour for a date, e.g. --start nov-23-2025=9 (repeatable)")
	submitCmd.Flags().Float64Var(&submitStartHour, "start-hour", -1, "Start hour for dates without --start (default from config)")
	submitCmd.Flags().StringSliceVar(&submitDates, "date", nil, "Only submit these dates (repeatable)")
	submitCmd.Flags().BoolVarP(&submitYes, "yes", "y", false, "Do not prompt; use the default start hour for dates without --start")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Look up existing bookings but create nothing")
	submitCmd.Flags().BoolVar(&submitProgress, "progress", false, "Show a live progress view")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	result := validateFile(args[0], loadTables(cfg))
	if !result.IsValid {
		fmt.Fprint(os.Stderr, tui.RenderValidation(result))
		os.Exit(1)
	}

	logs, err := selectLogs(result.Logs, submitDates)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	overrides, err := parseStartFlags(submitStarts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	def := cfg.Schedule.DefaultStartHour
	if submitStartHour >= 0 {
		if submitStartHour >= 24 {
			fmt.Fprintln(os.Stderr, "--start-hour must be between 0 and 23")
			os.Exit(1)
		}
		def = submitStartHour
	}

	var ask askFunc
	if !submitYes && isatty.IsTerminal(os.Stdin.Fd()) {
		ask = func(date string, def float64) (float64, error) {
			return tui.PromptStartHour(date, def, os.Stdin, os.Stderr)
		}
	}
	hours, err := resolveStartHours(logs, overrides, def, ask)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.RenderCrossDate(result.CrossDate))

	base, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stop := signal.NotifyContext(base, os.Interrupt)
	defer stop()

	api := newAPI(ctx, cfg)

	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		slog.Warn("journal unavailable, runs will not be recorded", "error", err)
		jr = nil
	} else {
		defer jr.Close()
	}
	reportsDir := storage.ReportsDir(cfg.DataDir)

	// Reports of this submission by ISO date.
	archived := make(map[string][]model.Report)
	failed := 0
	for i, tl := range buildTimelines(logs, hours) {
		fmt.Fprintln(out)
		fmt.Fprint(out, tui.RenderTimeline(tl))

		report := model.Report{
			RunID:     journal.NewRunID(),
			StartHour: hours[i],
			DryRun:    submitDryRun,
			Timeline:  tl,
		}
		opts := reconcile.Options{
			StatusID: cfg.OpenProject.DefaultStatusID,
			DryRun:   submitDryRun,
			Logger:   slog.Default(),
		}

		started := time.Now()
		if submitProgress {
			// The progress view owns the terminal; keep log lines out of it.
			opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			title := fmt.Sprintf("Submitting %s", tl.Date)
			err := tui.RunProgress(title, len(tl.Entries), cancel, os.Stdin, os.Stderr, func(progress func(reconcile.Progress)) {
				opts.OnProgress = progress
				report.Outcome = reconcile.Run(ctx, api, tl, opts)
			})
			if err != nil {
				slog.Warn("progress view failed", "error", err)
			}
		} else {
			report.Outcome = reconcile.Run(ctx, api, tl, opts)
		}
		finished := time.Now()

		fmt.Fprint(out, tui.RenderOutcome(report.Outcome))
		failed += len(report.Outcome.Failed)

		archived[tl.ISODate] = append(archived[tl.ISODate], report)
		if err := storage.SaveReports(reportsDir, archived[tl.ISODate]); err != nil {
			slog.Warn("could not archive report", "date", tl.Date, "error", err)
		}
		if jr != nil {
			if _, err := jr.RecordRun(context.WithoutCancel(ctx), report, started, finished); err != nil {
				slog.Warn("could not record run", "date", tl.Date, "error", err)
			}
		}

		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Interrupted; remaining dates were not submitted.")
			os.Exit(2)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d entr%s failed\n", failed, pluralSuffix(failed))
		os.Exit(2)
	}
	return nil
}

func pluralSuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
