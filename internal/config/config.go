package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration for wlog, stored in ~/.wlog/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	OpenProject OpenProjectConfig `json:"openproject"`
	Schedule    ScheduleConfig    `json:"schedule"`
	// MappingsFile is a TOML file with [projects] and [activities] tables.
	// Empty uses the built-in tables.
	MappingsFile string `json:"mappings_file"`
	// JournalPath is the sqlite file recording submission runs.
	JournalPath string `json:"journal_path"`

	// DataDir is the directory holding the config file. Tokens and reports
	// are stored below it.
	DataDir string `json:"-"`
}

// OpenProjectConfig holds the connection settings.
type OpenProjectConfig struct {
	BaseURL string `json:"base_url"`
	// Auth is "apikey" or "oauth2".
	Auth         string `json:"auth"`
	APIToken     string `json:"api_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// DefaultStatusID is assigned to work packages created during submission.
	DefaultStatusID int `json:"default_status_id"`
	TimeoutSeconds  int `json:"timeout_seconds"`
}

// ScheduleConfig holds timeline defaults.
type ScheduleConfig struct {
	DefaultStartHour float64 `json:"default_start_hour"`
}

const (
	DefaultAuth           = "apikey"
	DefaultStatusID       = 7
	DefaultTimeoutSeconds = 30
	DefaultStartHour      = 11.0
)

const (
	dataDirName     = ".wlog"
	configFileName  = "config.json"
	journalFileName = "journal.sqlite"

	envBaseURL  = "OPENPROJECT_URL"
	envAPIToken = "OPENPROJECT_API_TOKEN"
)

// defaultConfig returns a Config pre-filled with defaults. dir is the data
// directory the journal lives in.
func defaultConfig(dir string) Config {
	return Config{
		OpenProject: OpenProjectConfig{
			Auth:            DefaultAuth,
			DefaultStatusID: DefaultStatusID,
			TimeoutSeconds:  DefaultTimeoutSeconds,
		},
		Schedule: ScheduleConfig{
			DefaultStartHour: DefaultStartHour,
		},
		JournalPath: filepath.Join(dir, journalFileName),
		DataDir:     dir,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// wlog configuration – ~/.wlog/config.json
//
// Fill in base_url and api_token before submitting. Every other setting has
// a working default.
{
  // ── OpenProject connection ─────────────────────────────────────────────
  "openproject": {
    // Root URL of the instance, without /api/v3.
    // Overridden by the OPENPROJECT_URL environment variable.
    "base_url": "",

    // "apikey" – personal access token (My account → Access tokens)
    // "oauth2" – client credentials of an OAuth application
    "auth": "apikey",

    // Personal access token for "apikey" mode.
    // Overridden by the OPENPROJECT_API_TOKEN environment variable.
    "api_token": "",

    // OAuth application credentials for "oauth2" mode.
    "client_id": "",
    "client_secret": "",

    // Status given to work packages created during submission.
    "default_status_id": 7,

    // Per-request timeout.
    "timeout_seconds": 30
  },

  // ── Timeline ───────────────────────────────────────────────────────────
  "schedule": {
    // Hour the first non-SCRUM entry of a day starts at (0–23, fractions
    // allowed). Can be overridden per date with: wlog submit --start DATE=HOUR
    "default_start_hour": 11
  },

  // TOML file with [projects] and [activities] name → id tables.
  // Leave empty to use the built-in tables (see: wlog mappings).
  "mappings_file": "",

  // sqlite database recording submission runs (see: wlog history).
  // Empty means ~/.wlog/journal.sqlite.
  "journal_path": ""
}
`

// DefaultPath returns the path to ~/.wlog/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, dataDirName, configFileName), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.wlog/config.json. See LoadFrom.
func Load() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return defaultConfig(""), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, creating it with annotated defaults on
// first run. Lines starting with // are treated as comments and stripped
// before JSON parsing. Environment overrides are applied last.
func LoadFrom(path string) (Config, error) {
	dir := filepath.Dir(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			slog.Warn("could not create config file", "path", path, "error", writeErr)
		}
		cfg := defaultConfig(dir)
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return defaultConfig(dir), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(dir), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := defaultConfig(dir)
	cfg.DataDir = dir
	if cfg.OpenProject.Auth == "" {
		cfg.OpenProject.Auth = def.OpenProject.Auth
	}
	if cfg.OpenProject.DefaultStatusID == 0 {
		cfg.OpenProject.DefaultStatusID = def.OpenProject.DefaultStatusID
	}
	if cfg.OpenProject.TimeoutSeconds == 0 {
		cfg.OpenProject.TimeoutSeconds = def.OpenProject.TimeoutSeconds
	}
	if cfg.Schedule.DefaultStartHour == 0 {
		cfg.Schedule.DefaultStartHour = def.Schedule.DefaultStartHour
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = def.JournalPath
	}
	if cfg.MappingsFile != "" && !filepath.IsAbs(cfg.MappingsFile) {
		cfg.MappingsFile = filepath.Join(dir, cfg.MappingsFile)
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// applyEnv lets the environment override connection settings.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envBaseURL)); v != "" {
		cfg.OpenProject.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPIToken)); v != "" {
		cfg.OpenProject.APIToken = v
	}
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	if h := c.Schedule.DefaultStartHour; h < 0 || h >= 24 {
		return fmt.Errorf("schedule.default_start_hour must be between 0 and 23, got %v", h)
	}
	switch c.OpenProject.Auth {
	case "apikey", "oauth2":
	default:
		return fmt.Errorf("openproject.auth must be \"apikey\" or \"oauth2\", got %q", c.OpenProject.Auth)
	}
	if c.OpenProject.TimeoutSeconds < 0 {
		return fmt.Errorf("openproject.timeout_seconds must not be negative")
	}
	return nil
}

// TokenPath is where the oauth2 token is cached.
func (c Config) TokenPath() string {
	return filepath.Join(c.DataDir, "auth", "openproject_token.json")
}

// RequireConnection reports an error unless the settings needed to reach
// OpenProject are present.
func (c Config) RequireConnection() error {
	if c.OpenProject.BaseURL == "" {
		return fmt.Errorf("openproject.base_url is not set (edit the config file or set %s)", envBaseURL)
	}
	return nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
