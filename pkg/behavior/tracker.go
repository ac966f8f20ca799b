// Package behavior tracks cumulative daily exposure to classified content
// and escalates through nudge tiers to a timed break lockout. A tracking
// session exists per active video; periodic ticks of actual watched time
// drive the escalation checks.
package behavior

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/classify"
	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/state"
)

// Thresholds define one escalation ladder: counts include the in-progress
// video, seconds are effective daily totals.
type Thresholds struct {
	Nudge1Count   int
	Nudge1Seconds int
	Nudge2Count   int
	Nudge2Seconds int
	BreakCount    int
	BreakSeconds  int
}

// Config holds the tracker tuning. DefaultConfig matches production.
type Config struct {
	// TickInterval is how much actual watch time passes between ticks.
	TickInterval time.Duration
	// NeutralFreeVideos and NeutralFreeSeconds are the daily neutral
	// allowance; neutral consumption beyond them counts as distracting.
	NeutralFreeVideos  int
	NeutralFreeSeconds int
	// Distracting escalation runs during playback; Productive only at
	// video end (productive fatigue builds slowly, interrupting mid-video
	// would punish exactly the behavior we want to encourage).
	Distracting Thresholds
	Productive  Thresholds
	// BreakDuration is the lockout length once a break threshold trips.
	BreakDuration time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		TickInterval:       45 * time.Second,
		NeutralFreeVideos:  2,
		NeutralFreeSeconds: 1200,
		Distracting: Thresholds{
			Nudge1Count: 3, Nudge1Seconds: 1200,
			Nudge2Count: 4, Nudge2Seconds: 2400,
			BreakCount: 5, BreakSeconds: 3600,
		},
		Productive: Thresholds{
			Nudge1Count: 3, Nudge1Seconds: 1800,
			Nudge2Count: 5, Nudge2Seconds: 3600,
			BreakCount: 7, BreakSeconds: 5400,
		},
		BreakDuration: 10 * time.Minute,
	}
}

// Phase is the per-video state machine position.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseTracking Phase = "tracking"
	PhaseStopped  Phase = "stopped"
)

// Session is the transient per-video state. It lives in memory for the
// duration of one video view and is passed explicitly into each tick; there
// is no module-level mutable state.
type Session struct {
	VideoID        string
	Channel        string
	Phase          Phase
	Classification classify.Classification
	Acc            *Accumulator
	// CreditedSeconds is how much of Acc has already been added to the
	// stored daily counters.
	CreditedSeconds int
	// NudgeShown latches after the first nudge of any level so at most one
	// nudge fires per video.
	NudgeShown bool
}

// NewSession starts tracking a video.
func NewSession(videoID, channel string, initial PlaybackState, audible bool, now time.Time) *Session {
	return &Session{
		VideoID: videoID,
		Channel: channel,
		Phase:   PhaseTracking,
		Acc:     NewAccumulator(initial, audible, now),
	}
}

// Tracker drives behavior-loop state against the store.
type Tracker struct {
	store *state.Store
	cfg   Config
}

// NewTracker creates a tracker.
func NewTracker(store *state.Store, cfg Config) *Tracker {
	return &Tracker{store: store, cfg: cfg}
}

// effectiveDistracting folds excess neutral consumption into the distracting
// totals. Within the daily allowance neutral content contributes exactly
// zero.
func (t *Tracker) effectiveDistracting(b state.BehaviorCounters) (count, seconds int) {
	count = b.DistractingCount
	seconds = b.DistractingSeconds
	if extra := b.NeutralCount - t.cfg.NeutralFreeVideos; extra > 0 {
		count += extra
	}
	if extra := b.NeutralSeconds - t.cfg.NeutralFreeSeconds; extra > 0 {
		seconds += extra
	}
	return count, seconds
}

func levelFor(th Thresholds, count, seconds int) nudge.Level {
	switch {
	case count >= th.BreakCount || seconds >= th.BreakSeconds:
		return nudge.LevelBreak
	case count >= th.Nudge2Count || seconds >= th.Nudge2Seconds:
		return nudge.LevelNudge2
	case count >= th.Nudge1Count || seconds >= th.Nudge1Seconds:
		return nudge.LevelNudge1
	default:
		return nudge.LevelNone
	}
}

// ActiveLockout reports whether a break lockout is in force, expiring it
// first if its window has passed. Expiry resets the counters of whichever
// category triggered the break: distracting breaks also clear neutral,
// since neutral overflow is what feeds the distracting totals.
func (t *Tracker) ActiveLockout(ctx context.Context, userID string, now time.Time) (bool, time.Time, error) {
	b, err := t.store.BehaviorCounters(ctx, userID)
	if err != nil {
		return false, time.Time{}, err
	}
	if b.BreakLockoutUntil.IsZero() {
		return false, time.Time{}, nil
	}
	if now.Before(b.BreakLockoutUntil) {
		return true, b.BreakLockoutUntil, nil
	}

	// Lockout just expired: clear it and reset the triggering category.
	switch b.BreakCategory {
	case state.CategoryProductive:
		b.ProductiveCount = 0
		b.ProductiveSeconds = 0
	default:
		b.DistractingCount = 0
		b.DistractingSeconds = 0
		b.NeutralCount = 0
		b.NeutralSeconds = 0
	}
	b.BreakLockoutUntil = time.Time{}
	b.BreakCategory = ""
	if err := t.store.SaveBehaviorCounters(ctx, userID, b); err != nil {
		return false, time.Time{}, err
	}
	logrus.Infof("break lockout expired for user %s, counters reset", userID)
	return false, time.Time{}, nil
}

// Tick processes one periodic tick for an active session: credit watch time
// accumulated since the last tick to the video's category, then run the
// distracting escalation check. Returns a nudge event when one fires.
//
// A tick with an unknown classification credits nothing; classifier failure
// skips analytics for that tick rather than guessing.
func (t *Tracker) Tick(ctx context.Context, userID string, sess *Session, now time.Time) (*nudge.Event, error) {
	if sess == nil || sess.Phase != PhaseTracking {
		return nil, nil
	}

	locked, until, err := t.ActiveLockout(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if locked {
		// No counter updates during a lockout.
		logrus.Debugf("tick ignored for user %s: break lockout until %v", userID, until)
		return nil, nil
	}

	if !sess.Classification.Known {
		return nil, nil
	}

	b, err := t.store.BehaviorCounters(ctx, userID)
	if err != nil {
		return nil, err
	}

	delta := sess.Acc.Seconds(now) - sess.CreditedSeconds
	if delta > 0 {
		sess.CreditedSeconds += delta
		addSeconds(&b, sess.Classification.Category, delta)
		if err := t.store.SaveBehaviorCounters(ctx, userID, b); err != nil {
			return nil, err
		}
	}

	return t.checkDistracting(ctx, userID, sess, b, now)
}

// checkDistracting runs the mid-playback escalation. The in-progress video
// counts as +1 on top of the completed daily count.
func (t *Tracker) checkDistracting(ctx context.Context, userID string, sess *Session, b state.BehaviorCounters, now time.Time) (*nudge.Event, error) {
	if sess.NudgeShown {
		return nil, nil
	}
	if sess.Classification.Category == state.CategoryProductive {
		// Productive fatigue is only checked at video end.
		return nil, nil
	}

	count, seconds := t.effectiveDistracting(b)
	level := levelFor(t.cfg.Distracting, count+1, seconds)
	if level == nudge.LevelNone {
		return nil, nil
	}

	sess.NudgeShown = true
	ev := nudge.NewEvent(userID, nudge.KindBehaviorLoop, level, state.CategoryDistracting, now)
	ev.VideoID = sess.VideoID
	ev.Channel = sess.Channel

	if level == nudge.LevelBreak {
		if err := t.startBreak(ctx, userID, &b, state.CategoryDistracting, now); err != nil {
			return nil, err
		}
		ev.LockoutUntil = b.BreakLockoutUntil
	}

	logrus.Infof("behavior nudge for user %s: level=%s category=distracting count=%d seconds=%d",
		userID, level, count+1, seconds)
	return ev, nil
}

// EndVideo finalizes a session on navigation away or video change: flush any
// uncredited watch time, count the video toward its category, and run the
// video-end-only productive fatigue check.
func (t *Tracker) EndVideo(ctx context.Context, userID string, sess *Session, now time.Time) (*nudge.Event, error) {
	if sess == nil || sess.Phase != PhaseTracking {
		return nil, nil
	}
	sess.Phase = PhaseStopped

	locked, _, err := t.ActiveLockout(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if locked || !sess.Classification.Known {
		return nil, nil
	}

	b, err := t.store.BehaviorCounters(ctx, userID)
	if err != nil {
		return nil, err
	}

	if delta := sess.Acc.Seconds(now) - sess.CreditedSeconds; delta > 0 {
		sess.CreditedSeconds += delta
		addSeconds(&b, sess.Classification.Category, delta)
	}
	addCount(&b, sess.Classification.Category)
	if err := t.store.SaveBehaviorCounters(ctx, userID, b); err != nil {
		return nil, err
	}

	if sess.Classification.Category != state.CategoryProductive || sess.NudgeShown {
		return nil, nil
	}

	level := levelFor(t.cfg.Productive, b.ProductiveCount, b.ProductiveSeconds)
	if level == nudge.LevelNone {
		return nil, nil
	}

	sess.NudgeShown = true
	ev := nudge.NewEvent(userID, nudge.KindBehaviorLoop, level, state.CategoryProductive, now)
	ev.VideoID = sess.VideoID
	ev.Channel = sess.Channel

	if level == nudge.LevelBreak {
		if err := t.startBreak(ctx, userID, &b, state.CategoryProductive, now); err != nil {
			return nil, err
		}
		ev.LockoutUntil = b.BreakLockoutUntil
	}

	logrus.Infof("productive fatigue nudge for user %s: level=%s count=%d seconds=%d",
		userID, level, b.ProductiveCount, b.ProductiveSeconds)
	return ev, nil
}

func (t *Tracker) startBreak(ctx context.Context, userID string, b *state.BehaviorCounters, cat state.Category, now time.Time) error {
	b.BreakLockoutUntil = now.Add(t.cfg.BreakDuration)
	b.BreakCategory = cat
	if err := t.store.SaveBehaviorCounters(ctx, userID, *b); err != nil {
		return err
	}
	logrus.Infof("break lockout started for user %s (category=%s, until=%v)", userID, cat, b.BreakLockoutUntil)
	return nil
}

func addSeconds(b *state.BehaviorCounters, cat state.Category, seconds int) {
	switch cat {
	case state.CategoryDistracting:
		b.DistractingSeconds += seconds
	case state.CategoryProductive:
		b.ProductiveSeconds += seconds
	default:
		b.NeutralSeconds += seconds
	}
}

func addCount(b *state.BehaviorCounters, cat state.Category) {
	switch cat {
	case state.CategoryDistracting:
		b.DistractingCount++
	case state.CategoryProductive:
		b.ProductiveCount++
	default:
		b.NeutralCount++
	}
}
