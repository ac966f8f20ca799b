// Package spiral detects repeated, escalating consumption of a single
// channel within a rolling week. Each completed watch appends to history,
// updates a decayed weighted per-channel record, and may emit a SpiralEvent
// unless the user recently dismissed a nudge for that channel.
package spiral

import (
	"math"
	"time"

	"github.com/focusloop/attention-budget/pkg/period"
	"github.com/focusloop/attention-budget/pkg/state"
)

// Config holds the detector thresholds. DefaultConfig matches production.
type Config struct {
	// WeeklyCountThreshold trips on the decayed weighted weekly count.
	WeeklyCountThreshold float64
	// WeeklySecondsThreshold trips on raw weekly watch seconds.
	WeeklySecondsThreshold int
	// ConsecutiveGap is the maximum spacing between same-channel watches
	// that still counts as one consecutive session run.
	ConsecutiveGap time.Duration
	// HistoryWindow is how long watch history is retained.
	HistoryWindow time.Duration
	// EventWindow is how long emitted events are retained.
	EventWindow time.Duration
	// DismissCooldown suppresses re-detection after a user dismissal.
	DismissCooldown time.Duration
	// DistractingConfidence gates the consecutive-session multiplier.
	DistractingConfidence float64
}

// DefaultConfig returns the production thresholds: 6 weighted views or 90
// minutes per channel per week, 1-hour session gap, 60-day history, 30-day
// event log, 7-day dismissal cooldown.
func DefaultConfig() Config {
	return Config{
		WeeklyCountThreshold:   6,
		WeeklySecondsThreshold: 5400,
		ConsecutiveGap:         time.Hour,
		HistoryWindow:          60 * 24 * time.Hour,
		EventWindow:            30 * 24 * time.Hour,
		DismissCooldown:        7 * 24 * time.Hour,
		DistractingConfidence:  0.7,
	}
}

// consecutiveRun counts the run of same-channel entries ending with the new
// entry, walking history backward while each same-channel finish time is
// within gap of the next more recent one. History is oldest first and does
// not yet contain the new entry.
func consecutiveRun(history []state.WatchHistoryEntry, entry state.WatchHistoryEntry, gap time.Duration) int {
	run := 1
	mostRecent := entry.FinishedAt
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i]
		if prev.Channel != entry.Channel {
			continue
		}
		if mostRecent.Sub(prev.FinishedAt) > gap {
			break
		}
		run++
		mostRecent = prev.FinishedAt
	}
	return run
}

// sessionWeight maps a consecutive run length to the session multiplier:
// 1.0 for a single view, 1.5 for two in a row, 2.0 for three or more.
func sessionWeight(run int) float64 {
	switch {
	case run >= 3:
		return 2.0
	case run == 2:
		return 1.5
	default:
		return 1.0
	}
}

// lastSameChannel returns the most recent prior entry for the channel, or
// nil when none exists.
func lastSameChannel(history []state.WatchHistoryEntry, channel string) *state.WatchHistoryEntry {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Channel == channel {
			return &history[i]
		}
	}
	return nil
}

// watchWeight computes the weighted count contribution of the new entry.
// The session multiplier only applies when the channel's most recent prior
// entry was a confident distracting classification; the extra (weight-1.0)
// is added on top of the raw count of 1 and rounded to one decimal.
//
// The extra term deliberately touches only the today/week counts, never the
// lifetime stats or the behavior-loop neutral allowance.
func watchWeight(history []state.WatchHistoryEntry, entry state.WatchHistoryEntry, cfg Config) float64 {
	prior := lastSameChannel(history, entry.Channel)
	if prior == nil || prior.CategoryPrimary != string(state.CategoryDistracting) || prior.Confidence <= cfg.DistractingConfidence {
		return 1.0
	}

	run := consecutiveRun(history, entry, cfg.ConsecutiveGap)
	extra := sessionWeight(run) - 1.0
	return math.Round((1.0+extra)*10) / 10
}

// decayRecord applies whole-day decay to the weekly counter: one unit per
// full 24-hour interval since the last watch, floored at zero. The today
// counter resets outright when the last watch fell on a different day.
// Applying this twice with the same now is a no-op after the first call,
// which is what makes spiral updates idempotent per watch.
func decayRecord(rec state.ChannelSpiralRecord, now time.Time) state.ChannelSpiralRecord {
	if rec.LastWatchedAt.IsZero() {
		return rec
	}

	days := int(now.Sub(rec.LastWatchedAt) / (24 * time.Hour))
	if days > 0 {
		rec.WeekWeighted -= float64(days)
		if rec.WeekWeighted < 0 {
			rec.WeekWeighted = 0
		}
		// Seconds age out with the count so a dormant channel fully clears.
		if days >= 7 {
			rec.WeekSeconds = 0
		}
	}

	if period.DailyKey(rec.LastWatchedAt) != period.DailyKey(now) {
		rec.TodayWeighted = 0
	}

	return rec
}

// pruneHistory drops entries older than the history window.
func pruneHistory(history []state.WatchHistoryEntry, now time.Time, window time.Duration) []state.WatchHistoryEntry {
	cutoff := now.Add(-window)
	kept := history[:0]
	for _, e := range history {
		if e.FinishedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// pruneEvents drops events older than the event window.
func pruneEvents(events []state.SpiralEvent, now time.Time, window time.Duration) []state.SpiralEvent {
	cutoff := now.Add(-window)
	kept := events[:0]
	for _, e := range events {
		if e.DetectedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}
