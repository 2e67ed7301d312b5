package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/storage"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <from> [<to>]",
	Short: "Export archived bookings to stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
}

// exportRow is one booked (or attempted) entry of an archived report.
type exportRow struct {
	Date        string  `json:"date"`
	Project     string  `json:"project"`
	Subject     string  `json:"subject"`
	Activity    string  `json:"activity"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Hours       float64 `json:"hours"`
	Action      string  `json:"action"`
	WorkPackage int     `json:"work_package_id"`
	TimeEntry   int     `json:"time_entry_id"`
	Error       string  `json:"error,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
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
			fmt.Fprintln(os.Stderr, "<to> must not be before <from>")
			os.Exit(1)
		}
	}

	cfg := loadConfig()
	reports, err := storage.LoadRange(storage.ReportsDir(cfg.DataDir), from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rows := exportRows(reports)

	out := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Fprintln(out, string(data))
	default: // csv
		printCSV(out, rows)
	}
	return nil
}

// exportRows flattens reports into rows, successes before failures per date.
func exportRows(reports []model.Report) []exportRow {
	rows := []exportRow{}
	for _, r := range reports {
		for _, s := range r.Outcome.Success {
			row := newExportRow(r.Timeline.ISODate, s.Entry)
			row.Action = s.Action
			row.WorkPackage = s.WorkPackageID
			row.TimeEntry = s.TimeEntryID
			rows = append(rows, row)
		}
		for _, f := range r.Outcome.Failed {
			row := newExportRow(r.Timeline.ISODate, f.Entry)
			row.Action = "failed"
			row.Error = f.Error
			rows = append(rows, row)
		}
	}
	return rows
}

func newExportRow(date string, e model.ScheduledEntry) exportRow {
	return exportRow{
		Date:     date,
		Project:  e.Project,
		Subject:  e.Subject,
		Activity: e.Activity,
		Start:    e.StartTimeFormatted,
		End:      e.EndTimeFormatted,
		Hours:    e.DurationHours,
	}
}

func printCSV(out io.Writer, rows []exportRow) {
	fmt.Fprintln(out, "date,project,subject,activity,start,end,hours,action,work_package_id,time_entry_id,error")
	for _, r := range rows {
		fmt.Fprintf(out, "%s,%s,%s,%s,%s,%s,%g,%s,%d,%d,%s\n",
			csvEscape(r.Date),
			csvEscape(r.Project),
			csvEscape(r.Subject),
			csvEscape(r.Activity),
			csvEscape(r.Start),
			csvEscape(r.End),
			r.Hours,
			r.Action,
			r.WorkPackage,
			r.TimeEntry,
			csvEscape(r.Error),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
