package spiral

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/state"
)

// Detector consumes completed watches and maintains spiral state.
type Detector struct {
	store *state.Store
	cfg   Config
}

// NewDetector creates a detector over the given store.
func NewDetector(store *state.Store, cfg Config) *Detector {
	return &Detector{store: store, cfg: cfg}
}

// Result reports the outcome of recording one watch.
type Result struct {
	// Spiral is set when thresholds tripped, whether or not an event was
	// emitted; the presentation layer uses it as the session-visible flag.
	Spiral bool `json:"spiral"`
	// Suppressed is set when thresholds tripped but the channel is inside
	// the dismissal cooldown, so no event was emitted.
	Suppressed bool `json:"suppressed"`
	// Event is the emitted event, nil when none fired.
	Event *state.SpiralEvent `json:"event,omitempty"`
	// Record is the channel's spiral record after the update.
	Record state.ChannelSpiralRecord `json:"record"`
}

// RecordWatch processes one completed video view:
// append to history (pruned to the rolling window), fold the weighted count
// into the channel's decayed record, check thresholds against the dismissal
// cooldown, and update lifetime stats unconditionally.
func (d *Detector) RecordWatch(ctx context.Context, userID string, entry state.WatchHistoryEntry) (*Result, error) {
	if entry.Channel == "" {
		return &Result{}, nil
	}
	now := entry.FinishedAt
	if now.IsZero() {
		now = time.Now()
		entry.FinishedAt = now
	}

	history, err := d.store.WatchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Weight is computed against history as it stood before this watch.
	weight := watchWeight(history, entry, d.cfg)

	history = append(pruneHistory(history, now, d.cfg.HistoryWindow), entry)
	if err := d.store.SaveWatchHistory(ctx, userID, history); err != nil {
		return nil, err
	}

	channels, err := d.store.SpiralChannels(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec := decayRecord(channels[entry.Channel], now)
	rec.TodayWeighted += weight
	rec.WeekWeighted += weight
	rec.WeekSeconds += entry.WatchSeconds
	rec.LastWatchedAt = now
	channels[entry.Channel] = rec
	if err := d.store.SaveSpiralChannels(ctx, userID, channels); err != nil {
		return nil, err
	}

	res := &Result{Record: rec}

	if rec.WeekWeighted >= d.cfg.WeeklyCountThreshold || rec.WeekSeconds >= d.cfg.WeeklySecondsThreshold {
		res.Spiral = true
		if d.underCooldown(ctx, userID, entry.Channel, now) {
			res.Suppressed = true
			logrus.Debugf("spiral for user %s channel %q suppressed by dismissal cooldown", userID, entry.Channel)
		} else {
			ev, err := d.emitEvent(ctx, userID, entry.Channel, rec, now)
			if err != nil {
				return nil, err
			}
			res.Event = ev
		}
	}

	if err := d.updateLifetime(ctx, userID, entry, now); err != nil {
		return nil, err
	}

	return res, nil
}

// Dismiss records a user dismissal of a spiral nudge, suppressing event
// emission for the channel for the cooldown window. Record updates and
// decay continue regardless.
func (d *Detector) Dismiss(ctx context.Context, userID, channel string, now time.Time) error {
	dismissals, err := d.store.SpiralDismissals(ctx, userID)
	if err != nil {
		return err
	}
	dismissals[channel] = now
	if err := d.store.SaveSpiralDismissals(ctx, userID, dismissals); err != nil {
		return err
	}
	logrus.Infof("spiral nudge dismissed for user %s channel %q", userID, channel)
	return nil
}

func (d *Detector) underCooldown(ctx context.Context, userID, channel string, now time.Time) bool {
	dismissals, err := d.store.SpiralDismissals(ctx, userID)
	if err != nil {
		// On storage failure, prefer suppressing a duplicate nudge over
		// re-nudging someone who already dismissed.
		logrus.Warnf("failed to load dismissals for user %s: %v", userID, err)
		return true
	}
	lastShown, ok := dismissals[channel]
	return ok && now.Sub(lastShown) < d.cfg.DismissCooldown
}

func (d *Detector) emitEvent(ctx context.Context, userID, channel string, rec state.ChannelSpiralRecord, now time.Time) (*state.SpiralEvent, error) {
	ev := state.SpiralEvent{
		ID:          uuid.NewString(),
		Channel:     channel,
		Count:       rec.WeekWeighted,
		TimeMinutes: rec.WeekSeconds / 60,
		DetectedAt:  now,
		Message: fmt.Sprintf("You've watched %s %.1f times this week (%d min). Worth a breather?",
			channel, rec.WeekWeighted, rec.WeekSeconds/60),
	}

	events, err := d.store.SpiralEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	events = append(pruneEvents(events, now, d.cfg.EventWindow), ev)
	if err := d.store.SaveSpiralEvents(ctx, userID, events); err != nil {
		return nil, err
	}

	logrus.Infof("spiral detected for user %s channel %q (count=%.1f, minutes=%d)",
		userID, channel, ev.Count, ev.TimeMinutes)
	return &ev, nil
}

func (d *Detector) updateLifetime(ctx context.Context, userID string, entry state.WatchHistoryEntry, now time.Time) error {
	lifetime, err := d.store.ChannelLifetime(ctx, userID)
	if err != nil {
		return err
	}
	stats := lifetime[entry.Channel]
	if stats.FirstWatchedAt.IsZero() {
		stats.FirstWatchedAt = now
	}
	stats.TotalVideos++
	stats.TotalSeconds += entry.WatchSeconds
	stats.LastWatchedAt = now
	lifetime[entry.Channel] = stats
	return d.store.SaveChannelLifetime(ctx, userID, lifetime)
}
