package worklog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// dateTokenRegex is the lexical shape of a date token, e.g. nov-23-2025.
var dateTokenRegex = regexp.MustCompile(`^[A-Za-z]+-\d{1,2}-\d{4}$`)

// ParseDate converts a "mon-dd-yyyy" token into a calendar date at midnight
// UTC. The month token is case-insensitive and may be abbreviated.
func ParseDate(token string) (time.Time, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(token)), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format: %q (expected mon-dd-yyyy)", token)
	}

	month, ok := months[parts[0]]
	if !ok {
		return time.Time{}, fmt.Errorf("invalid month %q in date %q", parts[0], token)
	}

	day, errDay := strconv.Atoi(parts[1])
	year, errYear := strconv.Atoi(parts[2])
	if errDay != nil || errYear != nil {
		return time.Time{}, fmt.Errorf("invalid date: %q", token)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("invalid date: %q (%s has no day %d)", token, month, day)
	}
	return t, nil
}

// ISODate converts a date token to yyyy-mm-dd.
func ISODate(token string) (string, error) {
	t, err := ParseDate(token)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
