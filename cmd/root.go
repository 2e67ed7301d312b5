package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worklog/internal/config"
	"github.com/Tiliavir/worklog/internal/mapping"
	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/openproject"
	"github.com/Tiliavir/worklog/internal/worklog"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "wlog",
	Short: "wlog – validate, schedule and submit daily work logs to OpenProject",
	Long: `wlog reads a JSON or YAML work-log document, validates it against the
configured project and activity tables, lays each day out on the clock and
books the entries as OpenProject time entries without creating duplicates.
Settings live in ~/.wlog/config.json.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.wlog/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API calls and per-entry results")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(statusesCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

// setupLogging installs the default slog logger on stderr.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig loads the config from --config or the default location. Errors
// are fatal.
func loadConfig() config.Config {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// loadTables loads the project and activity tables named by cfg.
func loadTables(cfg config.Config) mapping.Tables {
	tables, err := mapping.Load(cfg.MappingsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return tables
}

// validateFile reads and validates the document at path.
func validateFile(path string, tables mapping.Tables) model.ValidationResult {
	data, format, err := worklog.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return worklog.NewValidator(tables).ValidateBytes(data, format)
}

// newAPI builds an authenticated OpenProject API from cfg.
func newAPI(ctx context.Context, cfg config.Config) *openproject.API {
	if err := cfg.RequireConnection(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	op := cfg.OpenProject
	httpClient, err := openproject.HTTPClient(ctx, op.BaseURL, openproject.Credentials{
		Mode:         op.Auth,
		APIToken:     op.APIToken,
		ClientID:     op.ClientID,
		ClientSecret: op.ClientSecret,
		TokenPath:    cfg.TokenPath(),
		Timeout:      time.Duration(op.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication setup failed: %v\n", err)
		os.Exit(1)
	}
	return openproject.NewAPI(openproject.NewClient(op.BaseURL, httpClient, slog.Default()))
}
