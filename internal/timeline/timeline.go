// Package timeline places the entries of a daily log on the clock.
package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/timecalc"
)

// ScrumStartHour is the fixed start of every SCRUM entry.
const ScrumStartHour = 10.0

// DefaultStartHour is where the chain of regular entries begins unless the
// user picks another hour for the date.
const DefaultStartHour = 11.0

// Build schedules log starting at startHour. SCRUM entries all sit at
// ScrumStartHour and may overlap each other. The remaining entries are chained
// back to back from startHour; an entry's break_hours delays its start unless
// it is the first one in the chain. SCRUM entries come first in the result,
// then the chained ones, each group in document order.
func Build(log model.DailyLog, startHour float64) model.Timeline {
	var scrum, regular []model.Entry
	for _, e := range log.Entries {
		if e.IsScrum {
			scrum = append(scrum, e)
		} else {
			regular = append(regular, e)
		}
	}

	entries := make([]model.ScheduledEntry, 0, len(log.Entries))
	for _, e := range scrum {
		entries = append(entries, schedule(e, ScrumStartHour))
	}
	entries = append(entries, Chain(regular, startHour)...)

	var total float64
	for _, e := range entries {
		total += e.DurationHours
	}

	return model.Timeline{
		Date:       log.Date,
		ISODate:    log.ISODate,
		Entries:    entries,
		TotalHours: total,
	}
}

// Chain places entries one after another starting at startHour.
func Chain(entries []model.Entry, startHour float64) []model.ScheduledEntry {
	out := make([]model.ScheduledEntry, 0, len(entries))
	current := startHour
	for i, e := range entries {
		if i > 0 && e.BreakHours != nil {
			current += *e.BreakHours
		}
		s := schedule(e, current)
		current = s.EndTime
		out = append(out, s)
	}
	return out
}

func schedule(e model.Entry, start float64) model.ScheduledEntry {
	end := start + e.DurationHours
	return model.ScheduledEntry{
		Entry:              e,
		StartTime:          start,
		EndTime:            end,
		StartTimeFormatted: timecalc.FormatClock(start),
		EndTimeFormatted:   timecalc.FormatClock(end),
	}
}

// EndHour is the latest end time in tl, or 0 for an empty timeline.
func EndHour(tl model.Timeline) float64 {
	var end float64
	for _, e := range tl.Entries {
		if e.EndTime > end {
			end = e.EndTime
		}
	}
	return end
}

// ParseStartHour parses a start hour such as "9" or "8.5". The value must be
// in [0, 24).
func ParseStartHour(s string) (float64, error) {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid start hour %q: must be a number", s)
	}
	if math.IsNaN(h) || h < 0 || h >= 24 {
		return 0, fmt.Errorf("invalid start hour %q: must be between 0 and 23", s)
	}
	return h, nil
}
