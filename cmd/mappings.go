package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/mapping"
	"github.com/Tiliavir/worklog/internal/tui"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Show the project and activity tables in effect",
	Args:  cobra.NoArgs,
	RunE:  runMappings,
}

func runMappings(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	tables := loadTables(cfg)

	out := cmd.OutOrStdout()
	source := "built-in"
	if cfg.MappingsFile != "" {
		source = cfg.MappingsFile
	}
	fmt.Fprintln(out, tui.SubtitleStyle.Render("Source: "+source))
	printTable(out, "Projects", tables.Projects)
	fmt.Fprintln(out)
	printTable(out, "Activities", tables.Activities)
	return nil
}

func printTable(out io.Writer, title string, t *mapping.Table) {
	fmt.Fprintln(out, tui.TitleStyle.Render(title))
	for _, e := range t.Entries() {
		fmt.Fprintf(out, "  %-55s %d\n", e.Name, e.ID)
	}
}
