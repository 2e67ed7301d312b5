package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/journal"
	"github.com/Tiliavir/worklog/internal/tui"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded submission runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the entries of one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()

	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer jr.Close()

	out := cmd.OutOrStdout()

	if historyRun != "" {
		entries, err := jr.RunEntries(ctx, historyRun)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "No entries recorded for run %s.\n", historyRun)
			return nil
		}
		for _, e := range entries {
			detail := fmt.Sprintf("wp #%d, te #%d", e.WorkPackageID, e.TimeEntryID)
			if e.Error != "" {
				detail = tui.ErrorStyle.Render(e.Error)
			}
			fmt.Fprintf(out, "%3d  %-8s %-10s %-40s %5.2fh  %s\n",
				e.Position, e.Action, e.Project, e.Subject, e.Hours, detail)
		}
		return nil
	}

	runs, err := jr.ListRuns(ctx, historyLimit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No submissions recorded yet.")
		return nil
	}
	for _, r := range runs {
		dry := ""
		if r.DryRun {
			dry = tui.WarningStyle.Render(" [dry-run]")
		}
		fmt.Fprintf(out, "%s  %s  %s  created %d, skipped %d, planned %d, failed %d%s\n",
			tui.DimStyle.Render(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.ISODate,
			r.Created, r.Skipped, r.Planned, r.Failed, dry)
	}
	return nil
}
