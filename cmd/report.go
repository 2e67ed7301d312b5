package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/storage"
	"github.com/Tiliavir/worklog/internal/timecalc"
	"github.com/Tiliavir/worklog/internal/tui"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report <date> [<to-date>]",
	Short: "Show the archived submission report for a date or date range",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "Output format: text, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	from, err := parseReportDate(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	to := from
	if len(args) == 2 {
		if to, err = parseReportDate(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if to.Before(from) {
			fmt.Fprintln(os.Stderr, "<to-date> must not be before <date>")
			os.Exit(1)
		}
	}

	cfg := loadConfig()
	reports, err := storage.LoadRange(storage.ReportsDir(cfg.DataDir), from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	out := cmd.OutOrStdout()
	switch reportFormat {
	case "json":
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Fprintln(out, string(data))
	default: // text
		if len(reports) == 0 {
			fmt.Fprintln(out, "No reports archived for that period.")
			return nil
		}
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(out)
			}
			header := fmt.Sprintf("run %s, start %s", r.RunID, timecalc.FormatClock(r.StartHour))
			if r.DryRun {
				header += ", dry-run"
			}
			fmt.Fprint(out, tui.RenderTimeline(r.Timeline))
			fmt.Fprintln(out, tui.DimStyle.Render(header))
			fmt.Fprint(out, tui.RenderOutcome(r.Outcome))
		}
	}
	return nil
}

func parseReportDate(s string) (time.Time, error) {
	iso, err := normalizeDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("2006-01-02", iso)
}
