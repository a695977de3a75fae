package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in routes.
const DateLayout = "2006-01-02"

// Day is the length of one calendar day in normalized (UTC) time.
const Day = 24 * time.Hour

// NormalizeDate truncates t to midnight UTC of the calendar day t falls on in its own location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp and returns the
// normalized calendar day it names.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
}

// DayRange returns the half-open interval [from, to+1day) covering both calendar days inclusively.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	return NormalizeDate(from), NormalizeDate(to).Add(Day)
}
