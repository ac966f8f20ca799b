package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/behavior"
	"github.com/focusloop/attention-budget/pkg/classify"
	"github.com/focusloop/attention-budget/pkg/metrics"
	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/plan"
	"github.com/focusloop/attention-budget/pkg/spiral"
	"github.com/focusloop/attention-budget/pkg/state"
)

// RecordWatch feeds one completed video view into the spiral detector and
// dispatches any emitted spiral event to the nudge sinks.
func (e *Engine) RecordWatch(ctx context.Context, userID string, entry state.WatchHistoryEntry) (*spiral.Result, error) {
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}
	if _, err := e.store.MaybeRotate(ctx, userID, entry.FinishedAt); err != nil {
		logrus.Warnf("rotation check failed for user %s (continuing): %v", userID, err)
	}

	res, err := e.detector.RecordWatch(ctx, userID, entry)
	if err != nil {
		return nil, err
	}

	if res.Spiral {
		metrics.SpiralsTotal.WithLabelValues(strconv.FormatBool(res.Suppressed)).Inc()
	}
	if res.Event != nil {
		ev := nudge.NewEvent(userID, nudge.KindSpiral, nudge.LevelNudge1, "", res.Event.DetectedAt)
		ev.Channel = res.Event.Channel
		ev.Message = res.Event.Message
		metrics.NudgesTotal.WithLabelValues(string(ev.Kind), string(ev.Level)).Inc()
		e.dispatcher.Dispatch(ctx, ev)
	}

	return res, nil
}

// TickRequest is one playback tick from the presentation layer. State and
// Audible describe the player as of At; the engine derives watched time
// from the transitions, not from the caller's arithmetic.
type TickRequest struct {
	UserID  string                 `json:"userId"`
	VideoID string                 `json:"videoId"`
	Channel string                 `json:"channel"`
	Title   string                 `json:"title,omitempty"`
	State   behavior.PlaybackState `json:"state"`
	Audible bool                   `json:"audible"`
}

// TickResult reports what a tick produced.
type TickResult struct {
	Event          *nudge.Event            `json:"event,omitempty"`
	Classification classify.Classification `json:"aiClassification"`
	// WatchSecondsToday is the reconciled daily total after this tick.
	WatchSecondsToday int `json:"watchSecondsToday"`
}

// PlaybackTick advances the behavior-loop tracker for the active video. A
// tick for a new video ID finalizes the previous session first (running the
// video-end checks), then starts a fresh one.
func (e *Engine) PlaybackTick(ctx context.Context, req TickRequest, now time.Time) (*TickResult, error) {
	s := e.ensureSession(ctx, req, now)

	// Classifier failure falls back to unknown; the tracker then skips
	// increments for this tick and we try again on the next one.
	if !s.sess.Classification.Known {
		cls, err := e.classifier.Classify(ctx, classify.Video{
			VideoID: req.VideoID,
			Channel: req.Channel,
			Title:   req.Title,
		})
		if err == nil {
			s.sess.Classification = cls
		}
	}

	s.sess.Acc.Transition(req.State, req.Audible, now)

	ev, err := e.tracker.Tick(ctx, req.UserID, s.sess, now)
	if err != nil {
		return nil, err
	}
	e.dispatchNudge(ctx, ev)

	total := e.reconcileWatchSeconds(ctx, req.UserID, s, now)

	return &TickResult{
		Event:             ev,
		Classification:    s.sess.Classification,
		WatchSecondsToday: total,
	}, nil
}

// EndSession finalizes the user's active video session, if any: flushes
// remaining watch time, counts the video, and runs the video-end checks.
func (e *Engine) EndSession(ctx context.Context, userID string, now time.Time) (*nudge.Event, error) {
	e.mu.Lock()
	s := e.sessions[userID]
	delete(e.sessions, userID)
	e.mu.Unlock()

	if s == nil {
		return nil, nil
	}

	ev, err := e.tracker.EndVideo(ctx, userID, s.sess, now)
	if err != nil {
		return nil, err
	}
	e.dispatchNudge(ctx, ev)
	e.reconcileWatchSeconds(ctx, userID, s, now)
	return ev, nil
}

// DismissSpiral records a spiral nudge dismissal, starting the per-channel
// cooldown.
func (e *Engine) DismissSpiral(ctx context.Context, userID, channel string, now time.Time) error {
	return e.detector.Dismiss(ctx, userID, channel, now)
}

// SetTemporaryUnlock grants a timed bypass of blocking. Free-tier users
// cannot unlock; the test tier never needs to.
func (e *Engine) SetTemporaryUnlock(ctx context.Context, userID string, d time.Duration, now time.Time) error {
	planRec, err := e.store.Plan(ctx, userID)
	if err != nil {
		return err
	}
	if tier := plan.Resolve(planRec, now); tier == plan.TierFree {
		logrus.Infof("temporary unlock denied for free-tier user %s", userID)
		return nil
	}

	counters, err := e.store.Counters(ctx, userID)
	if err != nil {
		return err
	}
	counters.UnlockedUntil = now.Add(d)
	return e.store.SaveCounters(ctx, userID, counters)
}

// BlockShortsToday sets the self-imposed shorts block for the rest of the
// day; daily rotation clears it.
func (e *Engine) BlockShortsToday(ctx context.Context, userID string, now time.Time) error {
	counters, err := e.store.Counters(ctx, userID)
	if err != nil {
		return err
	}
	counters.ShortsBlockedToday = true
	return e.store.SaveCounters(ctx, userID, counters)
}

func (e *Engine) ensureSession(ctx context.Context, req TickRequest, now time.Time) *session {
	e.mu.Lock()
	s := e.sessions[req.UserID]
	e.mu.Unlock()

	if s != nil && s.sess.VideoID == req.VideoID {
		return s
	}

	if s != nil {
		// Video changed under us: finalize the old session first.
		if ev, err := e.tracker.EndVideo(ctx, req.UserID, s.sess, now); err != nil {
			logrus.Warnf("failed to finalize session for user %s: %v", req.UserID, err)
		} else {
			e.dispatchNudge(ctx, ev)
		}
	}

	counters, err := e.store.Counters(ctx, req.UserID)
	if err != nil {
		logrus.Warnf("counters load failed for user %s at session start: %v", req.UserID, err)
	}

	s = &session{
		sess:             behavior.NewSession(req.VideoID, req.Channel, req.State, req.Audible, now),
		baseWatchSeconds: counters.WatchSecondsToday,
	}
	e.mu.Lock()
	e.sessions[req.UserID] = s
	e.mu.Unlock()
	return s
}

// reconcileWatchSeconds folds this tab's local estimate of today's watch
// seconds into the stored counter, taking the max of local and stored so
// concurrent tabs never double count.
func (e *Engine) reconcileWatchSeconds(ctx context.Context, userID string, s *session, now time.Time) int {
	estimate := s.baseWatchSeconds + s.sess.Acc.Seconds(now)
	total, err := e.store.ReconcileWatchSeconds(ctx, userID, estimate)
	if err != nil {
		logrus.Warnf("watch-seconds reconciliation failed for user %s (tolerated): %v", userID, err)
		return estimate
	}
	return total
}

func (e *Engine) dispatchNudge(ctx context.Context, ev *nudge.Event) {
	if ev == nil {
		return
	}
	metrics.NudgesTotal.WithLabelValues(string(ev.Kind), string(ev.Level)).Inc()
	e.dispatcher.Dispatch(ctx, ev)
}
