package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/tui"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a work-log document without contacting OpenProject",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the full validation result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	result := validateFile(args[0], loadTables(cfg))

	out := cmd.OutOrStdout()
	if validateJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, tui.RenderValidation(result))
	}

	if !result.IsValid {
		os.Exit(1)
	}
	return nil
}
