package state

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/period"
)

// RotationResult reports which periods rolled over during a MaybeRotate call.
type RotationResult struct {
	Daily   bool
	Weekly  bool
	Monthly bool
}

// Rotated reports whether any period rolled over.
func (r RotationResult) Rotated() bool {
	return r.Daily || r.Weekly || r.Monthly
}

// MaybeRotate compares the stored reset keys with the keys for now and
// performs any due rollover. It is safe to call redundantly from concurrent
// tabs: the first caller to observe a stale key performs the reset and
// updates the key, after which further calls in the same period are no-ops.
//
// A daily rollover snapshots the pre-reset totals under a dated archive
// record (only when a previous key existed, so a brand-new user does not
// archive an empty day), then resets the per-period counter shape and the
// behavior-loop counters. Lifetime stats, watch history, spiral records,
// block lists and settings are never touched by rotation.
func (s *Store) MaybeRotate(ctx context.Context, userID string, now time.Time) (RotationResult, error) {
	keys, err := s.ResetKeys(ctx, userID)
	if err != nil {
		return RotationResult{}, err
	}

	var res RotationResult
	current := ResetKeys{
		Daily:   period.DailyKey(now),
		Weekly:  period.WeeklyKey(now),
		Monthly: period.MonthlyKey(now),
	}

	if keys.Daily != current.Daily {
		res.Daily = true
		if err := s.rotateDaily(ctx, userID, keys.Daily, now); err != nil {
			return res, err
		}
	}
	if keys.Weekly != current.Weekly {
		res.Weekly = true
		logrus.Debugf("weekly rollover for user %s: %s -> %s", userID, keys.Weekly, current.Weekly)
	}
	if keys.Monthly != current.Monthly {
		res.Monthly = true
		logrus.Debugf("monthly rollover for user %s: %s -> %s", userID, keys.Monthly, current.Monthly)
	}

	if res.Rotated() {
		if err := s.SaveResetKeys(ctx, userID, current); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (s *Store) rotateDaily(ctx context.Context, userID, previousKey string, now time.Time) error {
	counters, err := s.Counters(ctx, userID)
	if err != nil {
		return err
	}
	behavior, err := s.BehaviorCounters(ctx, userID)
	if err != nil {
		return err
	}

	if previousKey != "" {
		archive := DailyArchive{
			Day:        previousKey,
			Counters:   counters,
			Behavior:   behavior,
			ArchivedAt: now,
		}
		if err := s.SaveArchive(ctx, userID, archive); err != nil {
			return err
		}
		logrus.Infof("archived day %s for user %s (watch=%ds searches=%d)",
			previousKey, userID, counters.WatchSecondsToday, counters.SearchesToday)
	}

	if err := s.SaveCounters(ctx, userID, Counters{}); err != nil {
		return err
	}
	if err := s.SaveBehaviorCounters(ctx, userID, BehaviorCounters{}); err != nil {
		return err
	}

	logrus.Debugf("daily rotation completed for user %s", userID)
	return nil
}
