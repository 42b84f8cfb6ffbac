package service

import (
	"strings"
	"time"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant accepts RFC 3339 or "YYYY-MM-DD HH:MM[:SS]" (with a space
// or a T).  Values without an offset are read as UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validation("invalid timestamp %q", s)
}

// parseDay reads a calendar day from the first ten characters of s so
// ISO timestamps are accepted as well as plain dates.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", s[:10], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseClock reads "HH:MM" (or "HH:MM:SS") into hour and minute.
func parseClock(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// periodRange turns "YYYY-MM" or "YYYY-MM-DD" into a half-open UTC range.
func periodRange(p string) (time.Time, time.Time, error) {
	switch len(p) {
	case len("2006-01"):
		m, err := time.ParseInLocation("2006-01", p, time.UTC)
		if err != nil {
			break
		}
		return m, m.AddDate(0, 1, 0), nil
	case len("2006-01-02"):
		d, err := time.ParseInLocation("2006-01-02", p, time.UTC)
		if err != nil {
			break
		}
		return d, d.AddDate(0, 0, 1), nil
	}
	return time.Time{}, time.Time{}, validation("month must be YYYY-MM or YYYY-MM-DD")
}
