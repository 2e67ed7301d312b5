package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/storage"
)

func report(isoDate string, created int) model.Report {
	r := model.Report{
		RunID:     "run-" + isoDate,
		StartHour: 11,
		Timeline:  model.Timeline{Date: "x", ISODate: isoDate, Entries: []model.ScheduledEntry{}},
		Outcome:   model.Outcome{Success: []model.Success{}, Failed: []model.Failure{}},
	}
	for i := 0; i < created; i++ {
		r.Outcome.Success = append(r.Outcome.Success, model.Success{Action: model.ActionCreated, TimeEntryID: i + 1})
	}
	return r
}

var nov23 = time.Date(2025, 11, 23, 0, 0, 0, 0, time.UTC)

func TestLoadReportsNotExist(t *testing.T) {
	reports, err := storage.LoadReports(t.TempDir(), nov23)
	if err != nil {
		t.Fatalf("LoadReports on missing file: %v", err)
	}
	if reports != nil {
		t.Errorf("LoadReports = %+v, want nil", reports)
	}
}

func TestSaveReportsAndLoadReports(t *testing.T) {
	dir := t.TempDir()
	if err := storage.SaveReports(dir, []model.Report{report("2025-11-23", 2)}); err != nil {
		t.Fatalf("SaveReports: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "2025", "11", "23.json")); err != nil {
		t.Fatalf("report file missing: %v", err)
	}

	loaded, err := storage.LoadReports(dir, nov23)
	if err != nil {
		t.Fatalf("LoadReports after save: %v", err)
	}
	if len(loaded) != 1 || loaded[0].RunID != "run-2025-11-23" {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded[0].Outcome.Count(model.ActionCreated) != 2 {
		t.Errorf("created = %d, want 2", loaded[0].Outcome.Count(model.ActionCreated))
	}

	// A later submission replaces the reports.
	if err := storage.SaveReports(dir, []model.Report{report("2025-11-23", 0)}); err != nil {
		t.Fatalf("SaveReports: %v", err)
	}
	loaded, err = storage.LoadReports(dir, nov23)
	if err != nil {
		t.Fatalf("LoadReports: %v", err)
	}
	if len(loaded) != 1 || len(loaded[0].Outcome.Success) != 0 {
		t.Errorf("loaded = %+v, want one empty report after overwrite", loaded)
	}
}

func TestSaveReportsKeepsRepeatedDate(t *testing.T) {
	dir := t.TempDir()
	first, second := report("2025-11-23", 1), report("2025-11-23", 3)
	first.RunID, second.RunID = "morning", "evening"
	if err := storage.SaveReports(dir, []model.Report{first, second}); err != nil {
		t.Fatalf("SaveReports: %v", err)
	}

	loaded, err := storage.LoadReports(dir, nov23)
	if err != nil {
		t.Fatalf("LoadReports: %v", err)
	}
	if len(loaded) != 2 || loaded[0].RunID != "morning" || loaded[1].RunID != "evening" {
		t.Fatalf("loaded = %+v", loaded)
	}

	all, err := storage.LoadRange(dir, nov23, nov23)
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("LoadRange = %d reports, want 2", len(all))
	}
}

func TestSaveReportsErrors(t *testing.T) {
	tests := []struct {
		name    string
		reports []model.Report
	}{
		{"empty", nil},
		{"no date", []model.Report{report("", 0)}},
		{"mixed dates", []model.Report{report("2025-11-23", 0), report("2025-11-24", 0)}},
	}
	for _, tt := range tests {
		if err := storage.SaveReports(t.TempDir(), tt.reports); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadReportCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2025", "11", "23.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := storage.LoadReports(dir, nov23)
	if err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}
	if _, statErr := os.Stat(path + ".corrupt"); statErr != nil {
		t.Errorf("backup file not found: %v", statErr)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("corrupt file still in place")
	}
}

func TestLoadRange(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"2025-11-23", "2025-11-25", "2025-11-28"} {
		if err := storage.SaveReports(dir, []model.Report{report(d, 1)}); err != nil {
			t.Fatalf("SaveReports(%s): %v", d, err)
		}
	}

	reports, err := storage.LoadRange(dir,
		time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 26, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[0].Timeline.ISODate != "2025-11-23" || reports[1].Timeline.ISODate != "2025-11-25" {
		t.Errorf("order = %s, %s", reports[0].Timeline.ISODate, reports[1].Timeline.ISODate)
	}
}

func TestReportsDir(t *testing.T) {
	if got := storage.ReportsDir("/tmp/base"); got != filepath.Join("/tmp/base", "reports") {
		t.Errorf("ReportsDir = %q", got)
	}
}
