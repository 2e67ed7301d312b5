package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/tui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection and credentials",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()

	me, err := newAPI(ctx, cfg).Me(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection to %s failed: %v\n", cfg.OpenProject.BaseURL, err)
		os.Exit(2)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Connected to %s as %s\n",
		tui.SuccessStyle.Render("✓"), cfg.OpenProject.BaseURL, me.Name)
	return nil
}
