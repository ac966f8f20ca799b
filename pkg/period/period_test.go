package period

import (
	"testing"
	"time"
)

func TestDailyKey(t *testing.T) {
	ts := time.Date(2026, 3, 7, 23, 59, 59, 0, time.UTC)
	if got := DailyKey(ts); got != "2026-03-07" {
		t.Errorf("DailyKey() = %q, expected %q", got, "2026-03-07")
	}
}

func TestWeeklyKey(t *testing.T) {
	tests := []struct {
		name     string
		ts       time.Time
		expected string
	}{
		{
			name:     "mid-year week",
			ts:       time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
			expected: "2026-W25",
		},
		{
			name: "january 1st belongs to previous ISO year",
			// 2027-01-01 is a Friday; its ISO week is 2026-W53.
			ts:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: "2026-W53",
		},
		{
			name: "late december belongs to next ISO year",
			// 2025-12-29 is a Monday of week 1 of 2026.
			ts:       time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
			expected: "2026-W01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyKey(tt.ts); got != tt.expected {
				t.Errorf("WeeklyKey(%v) = %q, expected %q", tt.ts, got, tt.expected)
			}
		})
	}
}

func TestMonthlyKey(t *testing.T) {
	ts := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	if got := MonthlyKey(ts); got != "2026-11" {
		t.Errorf("MonthlyKey() = %q, expected %q", got, "2026-11")
	}
}

func TestKey_UnknownKindFallsBackToDaily(t *testing.T) {
	ts := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if got := Key(Kind("hourly"), ts); got != DailyKey(ts) {
		t.Errorf("Key(unknown) = %q, expected daily key %q", got, DailyKey(ts))
	}
}

func TestKey_SameDayIsStable(t *testing.T) {
	morning := time.Date(2026, 3, 7, 0, 0, 1, 0, time.UTC)
	night := time.Date(2026, 3, 7, 23, 59, 59, 0, time.UTC)

	for _, kind := range []Kind{Daily, Weekly, Monthly} {
		if Key(kind, morning) != Key(kind, night) {
			t.Errorf("Key(%s) differs within the same day", kind)
		}
	}
}
