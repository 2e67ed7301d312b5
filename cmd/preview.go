package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/timeline"
	"github.com/Tiliavir/worklog/internal/tui"
)

var (
	previewStarts    map[string]string
	previewStartHour float64
	previewDates     []string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the timeline each date would be submitted with",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringToStringVar(&previewStarts, "start", nil, "Start hour for a date, e.g. --start nov-23-2025=9 (repeatable)")
	previewCmd.Flags().Float64Var(&previewStartHour, "start-hour", -1, "Start hour for dates without --start (default from config)")
	previewCmd.Flags().StringSliceVar(&previewDates, "date", nil, "Only preview these dates (repeatable)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	result := validateFile(args[0], loadTables(cfg))
	if !result.IsValid {
		fmt.Fprint(os.Stderr, tui.RenderValidation(result))
		os.Exit(1)
	}

	logs, err := selectLogs(result.Logs, previewDates)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	overrides, err := parseStartFlags(previewStarts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	def := cfg.Schedule.DefaultStartHour
	if previewStartHour >= 0 {
		if previewStartHour >= 24 {
			fmt.Fprintln(os.Stderr, "--start-hour must be between 0 and 23")
			os.Exit(1)
		}
		def = previewStartHour
	}

	hours, err := resolveStartHours(logs, overrides, def, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := cmd.OutOrStdout()
	for i, tl := range buildTimelines(logs, hours) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, tui.RenderTimeline(tl))
		if end := timeline.EndHour(tl); end > 24 {
			fmt.Fprintln(out, tui.WarningStyle.Render("  warning: the day runs past midnight"))
		}
	}
	fmt.Fprint(out, tui.RenderCrossDate(result.CrossDate))
	return nil
}
