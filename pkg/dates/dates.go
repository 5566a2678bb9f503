// Package dates parses the loosely formatted date strings that arrive on
// candidate records: full dates, year-month, bare years, and ISO datetimes.
package dates

import (
	"regexp"
	"time"
)

// Precision levels for a date string.
const (
	PrecisionDay     = "day"
	PrecisionMonth   = "month"
	PrecisionYear    = "year"
	PrecisionUnknown = "unknown"
)

var (
	fullDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearMonthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearRe      = regexp.MustCompile(`^\d{4}$`)
	leadYearRe  = regexp.MustCompile(`^(\d{4})`)
)

// Parse interprets a date string of the shape YYYY-MM-DD, YYYY-MM, or YYYY,
// falling back to an ISO datetime. Partial dates resolve to the first day of
// the period.
func Parse(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	switch {
	case fullDateRe.MatchString(value):
		return parseLayout("2006-01-02", value)
	case yearMonthRe.MatchString(value):
		return parseLayout("2006-01", value)
	case yearRe.MatchString(value):
		return parseLayout("2006", value)
	}
	if parsed, ok := parseDatetime(value); ok {
		return parsed, true
	}
	return time.Time{}, false
}

// Precision classifies the shape of a date string.
func Precision(value string) string {
	switch {
	case value == "":
		return PrecisionUnknown
	case fullDateRe.MatchString(value):
		return PrecisionDay
	case yearMonthRe.MatchString(value):
		return PrecisionMonth
	case yearRe.MatchString(value):
		return PrecisionYear
	}
	return PrecisionUnknown
}

// WithinDays reports whether both strings parse and fall within maxDays of
// each other.
func WithinDays(first, second string, maxDays int) bool {
	firstDate, ok := Parse(first)
	if !ok {
		return false
	}
	secondDate, ok := Parse(second)
	if !ok {
		return false
	}
	diff := firstDate.Sub(secondDate)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(maxDays)*24*time.Hour
}

// Year extracts the leading four-digit year from a date string, parsed or
// not.
func Year(value string) string {
	match := leadYearRe.FindStringSubmatch(value)
	if match == nil {
		return ""
	}
	return match[1]
}

// ISODate formats a time as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseLayout(layout, value string) (time.Time, bool) {
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func parseDatetime(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
