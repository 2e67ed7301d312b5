package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List work package statuses",
	Args:  cobra.NoArgs,
	RunE:  runStatuses,
}

func runStatuses(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()

	statuses, err := newAPI(ctx, cfg).Statuses(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch statuses: %v\n", err)
		os.Exit(2)
	}

	out := cmd.OutOrStdout()
	for _, s := range statuses {
		marker := " "
		if s.ID == cfg.OpenProject.DefaultStatusID {
			marker = "*"
		}
		closed := ""
		if s.IsClosed {
			closed = " (closed)"
		}
		fmt.Fprintf(out, "%s %4d  %s%s\n", marker, s.ID, s.Name, closed)
	}
	return nil
}
