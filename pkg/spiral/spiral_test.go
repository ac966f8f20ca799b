package spiral

import (
	"testing"
	"time"

	"github.com/focusloop/attention-budget/pkg/state"
)

var spiralNow = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

func entry(channel string, finishedAt time.Time, category string, confidence float64) state.WatchHistoryEntry {
	return state.WatchHistoryEntry{
		Channel:         channel,
		VideoID:         "vid",
		FinishedAt:      finishedAt,
		WatchSeconds:    300,
		CategoryPrimary: category,
		Confidence:      confidence,
	}
}

func TestConsecutiveRun(t *testing.T) {
	gap := time.Hour
	newEntry := entry("ch", spiralNow, "", 0)

	tests := []struct {
		name    string
		history []state.WatchHistoryEntry
		want    int
	}{
		{"no history", nil, 1},
		{
			"one recent same-channel",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-30*time.Minute), "", 0)},
			2,
		},
		{
			"chain of three within gaps",
			[]state.WatchHistoryEntry{
				entry("ch", spiralNow.Add(-100*time.Minute), "", 0),
				entry("ch", spiralNow.Add(-50*time.Minute), "", 0),
			},
			3,
		},
		{
			"gap breaks the run",
			[]state.WatchHistoryEntry{
				entry("ch", spiralNow.Add(-5*time.Hour), "", 0),
				entry("ch", spiralNow.Add(-30*time.Minute), "", 0),
			},
			2,
		},
		{
			"other channels skipped",
			[]state.WatchHistoryEntry{
				entry("ch", spiralNow.Add(-50*time.Minute), "", 0),
				entry("other", spiralNow.Add(-10*time.Minute), "", 0),
			},
			2,
		},
		{
			"old same-channel entry beyond gap",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-2*time.Hour), "", 0)},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := consecutiveRun(tt.history, newEntry, gap); got != tt.want {
				t.Errorf("consecutiveRun() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionWeight(t *testing.T) {
	tests := []struct {
		run  int
		want float64
	}{
		{1, 1.0},
		{2, 1.5},
		{3, 2.0},
		{10, 2.0},
	}
	for _, tt := range tests {
		if got := sessionWeight(tt.run); got != tt.want {
			t.Errorf("sessionWeight(%d) = %v, want %v", tt.run, got, tt.want)
		}
	}
}

func TestWatchWeight(t *testing.T) {
	cfg := DefaultConfig()
	newEntry := entry("ch", spiralNow, string(state.CategoryDistracting), 0.9)

	tests := []struct {
		name    string
		history []state.WatchHistoryEntry
		want    float64
	}{
		{"no prior entry", nil, 1.0},
		{
			"prior not distracting",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-30*time.Minute), string(state.CategoryNeutral), 0.9)},
			1.0,
		},
		{
			"prior distracting but low confidence",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-30*time.Minute), string(state.CategoryDistracting), 0.7)},
			1.0,
		},
		{
			"confident distracting prior, run of two",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-30*time.Minute), string(state.CategoryDistracting), 0.9)},
			1.5,
		},
		{
			"confident distracting prior, run of three",
			[]state.WatchHistoryEntry{
				entry("ch", spiralNow.Add(-80*time.Minute), string(state.CategoryDistracting), 0.9),
				entry("ch", spiralNow.Add(-30*time.Minute), string(state.CategoryDistracting), 0.9),
			},
			2.0,
		},
		{
			"confident prior but run broken by gap",
			[]state.WatchHistoryEntry{entry("ch", spiralNow.Add(-3*time.Hour), string(state.CategoryDistracting), 0.9)},
			1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := watchWeight(tt.history, newEntry, cfg); got != tt.want {
				t.Errorf("watchWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecayRecord(t *testing.T) {
	base := state.ChannelSpiralRecord{
		TodayWeighted: 3,
		WeekWeighted:  5,
		WeekSeconds:   3000,
		LastWatchedAt: spiralNow.Add(-3 * 24 * time.Hour),
	}

	t.Run("whole days subtract from week weighted", func(t *testing.T) {
		got := decayRecord(base, spiralNow)
		if got.WeekWeighted != 2 {
			t.Errorf("WeekWeighted = %v, want 2", got.WeekWeighted)
		}
		if got.WeekSeconds != 3000 {
			t.Errorf("WeekSeconds = %d, want unchanged 3000", got.WeekSeconds)
		}
		if got.TodayWeighted != 0 {
			t.Errorf("TodayWeighted = %v, want 0 on day change", got.TodayWeighted)
		}
	})

	t.Run("floored at zero", func(t *testing.T) {
		rec := base
		rec.LastWatchedAt = spiralNow.Add(-10 * 24 * time.Hour)
		got := decayRecord(rec, spiralNow)
		if got.WeekWeighted != 0 {
			t.Errorf("WeekWeighted = %v, want 0", got.WeekWeighted)
		}
		if got.WeekSeconds != 0 {
			t.Errorf("WeekSeconds = %d, want 0 after a dormant week", got.WeekSeconds)
		}
	})

	t.Run("same day is a no-op", func(t *testing.T) {
		rec := base
		rec.LastWatchedAt = spiralNow.Add(-2 * time.Hour)
		got := decayRecord(rec, spiralNow)
		if got != rec {
			t.Errorf("decayRecord changed a same-day record: %+v", got)
		}
	})

	t.Run("idempotent for a fixed now", func(t *testing.T) {
		once := decayRecord(base, spiralNow)
		// Re-decaying after the record was touched at now must not decay more.
		once.LastWatchedAt = spiralNow
		twice := decayRecord(once, spiralNow)
		if twice != once {
			t.Errorf("second decay changed the record: %+v vs %+v", twice, once)
		}
	})

	t.Run("zero record untouched", func(t *testing.T) {
		var zero state.ChannelSpiralRecord
		if got := decayRecord(zero, spiralNow); got != zero {
			t.Errorf("zero record changed: %+v", got)
		}
	})
}

func TestPruneHistory(t *testing.T) {
	window := 60 * 24 * time.Hour
	history := []state.WatchHistoryEntry{
		entry("old", spiralNow.Add(-61*24*time.Hour), "", 0),
		entry("kept", spiralNow.Add(-59*24*time.Hour), "", 0),
		entry("fresh", spiralNow.Add(-time.Hour), "", 0),
	}
	got := pruneHistory(history, spiralNow, window)
	if len(got) != 2 {
		t.Fatalf("pruneHistory kept %d entries, want 2", len(got))
	}
	if got[0].Channel != "kept" || got[1].Channel != "fresh" {
		t.Errorf("wrong entries kept: %+v", got)
	}
}

func TestPruneEvents(t *testing.T) {
	window := 30 * 24 * time.Hour
	events := []state.SpiralEvent{
		{ID: "old", DetectedAt: spiralNow.Add(-31 * 24 * time.Hour)},
		{ID: "kept", DetectedAt: spiralNow.Add(-29 * 24 * time.Hour)},
	}
	got := pruneEvents(events, spiralNow, window)
	if len(got) != 1 || got[0].ID != "kept" {
		t.Errorf("pruneEvents = %+v, want only the recent event", got)
	}
}
