package timecalc

import (
	"fmt"
	"math"
	"strconv"
)

// FormatClock formats an hour-of-day value such as 13.5 as "1:30 PM". The
// minutes come from the fractional part, rounded to the nearest minute.
func FormatClock(hours float64) string {
	h := math.Floor(hours)
	m := int(math.Round((hours - h) * 60))
	if m == 60 {
		h++
		m = 0
	}
	return FormatClockAt(int(h), m)
}

// FormatClockAt formats an explicit hour and minute on a 12-hour clock.
// Hours of 12 and above are PM; 0 and 12 both print as 12.
func FormatClockAt(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, period)
}

// ISODuration encodes hours as an ISO 8601 duration, e.g. 3 → "PT3H",
// 1.5 → "PT1.5H".
func ISODuration(hours float64) string {
	return "PT" + strconv.FormatFloat(hours, 'f', -1, 64) + "H"
}

// FormatHours formats a number of hours like "1h 30m", "45m" or "2h".
func FormatHours(hours float64) string {
	total := int(math.Round(hours * 60))
	h := total / 60
	m := total % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
