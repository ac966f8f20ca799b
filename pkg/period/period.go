// Package period computes rotation period keys. Counters elsewhere in the
// engine are only valid for the period whose key matches the stored
// last-reset key; comparing keys is how stale state is detected.
package period

import (
	"fmt"
	"time"
)

// Kind identifies a rotation cadence.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// DailyKey returns the key for the calendar day containing t, e.g. "2026-03-07".
func DailyKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeeklyKey returns the ISO-8601 week key for t, e.g. "2026-W10".
// ISO weeks are Thursday-anchored, so the year component can differ from the
// calendar year around January 1st; time.ISOWeek already handles that.
func WeeklyKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthlyKey returns the key for the calendar month containing t, e.g. "2026-03".
func MonthlyKey(t time.Time) string {
	return t.Format("2006-01")
}

// Key returns the key of the given kind for t. Unknown kinds fall back to
// daily, the shortest period, so a bad configuration rotates too often rather
// than never.
func Key(kind Kind, t time.Time) string {
	switch kind {
	case Weekly:
		return WeeklyKey(t)
	case Monthly:
		return MonthlyKey(t)
	default:
		return DailyKey(t)
	}
}
