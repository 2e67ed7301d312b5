package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/worklog/internal/model"
)

const isoLayout = "2006-01-02"

// BaseDir returns the root data directory (~/.wlog).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wlog"), nil
}

// ReportsDir returns the report archive below base.
func ReportsDir(base string) string {
	return filepath.Join(base, "reports")
}

// reportFilePath returns the path for the given date's report file.
func reportFilePath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// DayFile is the top-level structure stored in each daily report file. A
// date listed in several logs of one document keeps one report per log, in
// document order.
type DayFile struct {
	Date    string         `json:"date"`
	Reports []model.Report `json:"reports"`
}

// LoadReports loads the reports archived for day. It returns nil if there are
// none.
func LoadReports(dir string, day time.Time) ([]model.Report, error) {
	path := reportFilePath(dir, day)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df.Reports, nil
}

// SaveReports atomically writes the reports of one submission for a single
// date, replacing whatever an earlier submission archived for that date.
func SaveReports(dir string, reports []model.Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("storage error: no reports to save")
	}
	iso := reports[0].Timeline.ISODate
	day, err := time.Parse(isoLayout, iso)
	if err != nil {
		return fmt.Errorf("storage error: report has no valid date: %w", err)
	}
	for _, r := range reports[1:] {
		if r.Timeline.ISODate != iso {
			return fmt.Errorf("storage error: reports for %s and %s cannot share a file", iso, r.Timeline.ISODate)
		}
	}

	path := reportFilePath(dir, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(DayFile{Date: iso, Reports: reports}, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LoadRange loads the reports archived in [from, to] inclusive, oldest
// first. Dates without a report are skipped.
func LoadRange(dir string, from, to time.Time) ([]model.Report, error) {
	reports := []model.Report{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day, err := LoadReports(dir, d)
		if err != nil {
			return nil, err
		}
		reports = append(reports, day...)
	}
	return reports, nil
}
