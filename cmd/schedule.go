package cmd

import (
	"fmt"
	"time"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/timeline"
	"github.com/Tiliavir/worklog/internal/worklog"
)

// normalizeDate accepts a document date token (nov-23-2025) or an ISO date
// (2025-11-23) and returns the ISO form.
func normalizeDate(token string) (string, error) {
	if t, err := time.Parse("2006-01-02", token); err == nil {
		return t.Format("2006-01-02"), nil
	}
	iso, err := worklog.ISODate(token)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: use mon-dd-yyyy or yyyy-mm-dd", token)
	}
	return iso, nil
}

// parseStartFlags converts --start DATE=HOUR values into start hours keyed
// by ISO date.
func parseStartFlags(values map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for date, hour := range values {
		iso, err := normalizeDate(date)
		if err != nil {
			return nil, fmt.Errorf("--start %s=%s: %w", date, hour, err)
		}
		h, err := timeline.ParseStartHour(hour)
		if err != nil {
			return nil, fmt.Errorf("--start %s=%s: %w", date, hour, err)
		}
		out[iso] = h
	}
	return out, nil
}

// selectLogs keeps the logs whose date is in dates, in document order. An
// empty dates list keeps everything. Naming a date the document does not
// contain is an error.
func selectLogs(logs []model.DailyLog, dates []string) ([]model.DailyLog, error) {
	if len(dates) == 0 {
		return logs, nil
	}
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		iso, err := normalizeDate(d)
		if err != nil {
			return nil, err
		}
		wanted[iso] = false
	}

	var out []model.DailyLog
	for _, log := range logs {
		if _, ok := wanted[log.ISODate]; ok {
			wanted[log.ISODate] = true
			out = append(out, log)
		}
	}
	for iso, found := range wanted {
		if !found {
			return nil, fmt.Errorf("date %s is not in the document", iso)
		}
	}
	return out, nil
}

// askFunc asks the user for the start hour of a date.
type askFunc func(date string, def float64) (float64, error)

// resolveStartHours picks the start hour of every log, indexed like logs: an
// explicit override for the log's date wins, otherwise ask is consulted,
// otherwise def is used. A date listed in several logs is asked once per log.
func resolveStartHours(logs []model.DailyLog, overrides map[string]float64, def float64, ask askFunc) ([]float64, error) {
	hours := make([]float64, len(logs))
	for i, log := range logs {
		if h, ok := overrides[log.ISODate]; ok {
			hours[i] = h
			continue
		}
		if ask == nil {
			hours[i] = def
			continue
		}
		h, err := ask(log.Date, def)
		if err != nil {
			return nil, err
		}
		hours[i] = h
	}
	return hours, nil
}

// buildTimelines schedules every log with the start hour at the same index.
func buildTimelines(logs []model.DailyLog, hours []float64) []model.Timeline {
	out := make([]model.Timeline, 0, len(logs))
	for i, log := range logs {
		out = append(out, timeline.Build(log, hours[i]))
	}
	return out
}
