package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tiliavir/worklog/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFirstRunWritesTemplate(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "")
	t.Setenv("OPENPROJECT_API_TOKEN", "")
	path := filepath.Join(t.TempDir(), "wlog", "config.json")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if cfg.Schedule.DefaultStartHour != 11 || cfg.OpenProject.DefaultStatusID != 7 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.JournalPath != filepath.Join(filepath.Dir(path), "journal.sqlite") {
		t.Errorf("JournalPath = %q", cfg.JournalPath)
	}

	// The written template must parse to the same defaults.
	again, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom(template): %v", err)
	}
	if again.OpenProject.Auth != "apikey" || again.OpenProject.TimeoutSeconds != 30 || again.Schedule.DefaultStartHour != 11 {
		t.Errorf("template config = %+v", again)
	}
	if again.DataDir != filepath.Dir(path) {
		t.Errorf("DataDir = %q", again.DataDir)
	}
	if err := again.RequireConnection(); err == nil {
		t.Error("RequireConnection should fail without base_url")
	}
}

func TestLoadFromBackfillsDefaults(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "")
	t.Setenv("OPENPROJECT_API_TOKEN", "")
	path := writeConfig(t, `// partial
{
  "openproject": {
    // only the connection
    "base_url": "https://op.example.com",
    "api_token": "abc"
  },
  "mappings_file": "mappings.toml"
}`)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.OpenProject.BaseURL != "https://op.example.com" || cfg.OpenProject.APIToken != "abc" {
		t.Errorf("connection = %+v", cfg.OpenProject)
	}
	if cfg.OpenProject.Auth != config.DefaultAuth || cfg.OpenProject.DefaultStatusID != config.DefaultStatusID {
		t.Errorf("defaults not back-filled: %+v", cfg.OpenProject)
	}
	if cfg.MappingsFile != filepath.Join(filepath.Dir(path), "mappings.toml") {
		t.Errorf("MappingsFile = %q, want it relative to the config file", cfg.MappingsFile)
	}
	if err := cfg.RequireConnection(); err != nil {
		t.Errorf("RequireConnection: %v", err)
	}
	if !strings.HasSuffix(cfg.TokenPath(), filepath.Join("auth", "openproject_token.json")) {
		t.Errorf("TokenPath = %q", cfg.TokenPath())
	}
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "https://env.example.com")
	t.Setenv("OPENPROJECT_API_TOKEN", "from-env")
	path := writeConfig(t, `{"openproject": {"base_url": "https://file.example.com", "api_token": "from-file"}}`)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.OpenProject.BaseURL != "https://env.example.com" || cfg.OpenProject.APIToken != "from-env" {
		t.Errorf("env overrides not applied: %+v", cfg.OpenProject)
	}
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad json", `{"openproject": `, "parsing config file"},
		{"start hour too large", `{"schedule": {"default_start_hour": 24}}`, "default_start_hour"},
		{"negative start hour", `{"schedule": {"default_start_hour": -1}}`, "default_start_hour"},
		{"unknown auth", `{"openproject": {"auth": "ldap"}}`, "openproject.auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
