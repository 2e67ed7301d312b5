package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/mapping"
	"github.com/Tiliavir/worklog/internal/openproject"
	"github.com/Tiliavir/worklog/internal/tui"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List remote projects and the names they are mapped to",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	tables := loadTables(cfg)
	ctx := context.Background()

	projects, err := newAPI(ctx, cfg).Projects(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch projects: %v\n", err)
		os.Exit(2)
	}
	printProjects(cmd, projects, tables.Projects)
	return nil
}

func printProjects(cmd *cobra.Command, projects []openproject.Project, table *mapping.Table) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%5s  %-40s %s\n", "ID", "Name", "Mapped as")
	for _, p := range projects {
		mapped := tui.DimStyle.Render("–")
		if name, ok := table.NameOf(p.ID); ok {
			mapped = tui.SuccessStyle.Render(name)
		}
		fmt.Fprintf(out, "%5d  %-40s %s\n", p.ID, p.Name, mapped)
	}
}
