// Package engine ties the decision engine, counter store, spiral detector
// and behavior-loop tracker together behind the operations the presentation
// layer calls: evaluate a page visit, record a completed watch, feed a
// playback tick, dismiss a spiral nudge.
package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/behavior"
	"github.com/focusloop/attention-budget/pkg/classify"
	"github.com/focusloop/attention-budget/pkg/decision"
	"github.com/focusloop/attention-budget/pkg/metrics"
	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/plan"
	"github.com/focusloop/attention-budget/pkg/spiral"
	"github.com/focusloop/attention-budget/pkg/state"
)

// Engine is the per-user session orchestrator. All durable state lives in
// the store; the only in-memory state is the per-video tracking session,
// held here instead of module globals so tests can drive it explicitly.
type Engine struct {
	store      *state.Store
	table      plan.Table
	detector   *spiral.Detector
	tracker    *behavior.Tracker
	classifier classify.Classifier
	dispatcher *nudge.Dispatcher

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	sess *behavior.Session
	// baseWatchSeconds is the stored daily watch-seconds at session start;
	// base + credited is this tab's local estimate for reconciliation.
	baseWatchSeconds int
}

// New creates an engine.
func New(store *state.Store, table plan.Table, detector *spiral.Detector, tracker *behavior.Tracker, classifier classify.Classifier, dispatcher *nudge.Dispatcher) *Engine {
	return &Engine{
		store:      store,
		table:      table,
		detector:   detector,
		tracker:    tracker,
		classifier: classifier,
		dispatcher: dispatcher,
		sessions:   make(map[string]*session),
	}
}

// PageContext is one page/navigation event from the presentation layer.
type PageContext struct {
	UserID  string            `json:"userId"`
	Page    decision.PageType `json:"pageType"`
	Channel string            `json:"channel,omitempty"`
	VideoID string            `json:"videoId,omitempty"`
}

// PageResult is the engine's response to a page visit.
type PageResult struct {
	Decision decision.Decision `json:"decision"`
	Tier     plan.Tier         `json:"tier"`
	Counters state.Counters    `json:"counters"`
	// SpiralInfo is the current channel's spiral record on watch pages.
	SpiralInfo *state.ChannelSpiralRecord `json:"spiralInfo,omitempty"`
	// LockoutUntil is set while a behavior break lockout is active and the
	// page is a watch or shorts page; the presentation layer redirects.
	LockoutUntil time.Time `json:"lockoutUntil,omitempty"`
}

// EvaluatePage runs the full decision path for one page visit: rotate
// counters if a period rolled over, resolve plan and settings, evaluate the
// pure decision ladder, then apply post-decision bookkeeping (global-block
// latching, search counting).
//
// Storage failures degrade rather than fail: the decision is computed over
// whatever state loaded, defaulting missing counters to zero, so the user
// always gets a decision.
func (e *Engine) EvaluatePage(ctx context.Context, pc PageContext, now time.Time) (*PageResult, error) {
	rotated, err := e.store.MaybeRotate(ctx, pc.UserID, now)
	if err != nil {
		logrus.Warnf("rotation check failed for user %s (continuing): %v", pc.UserID, err)
	}
	countRotations(rotated)

	planRec, err := e.store.Plan(ctx, pc.UserID)
	if err != nil {
		logrus.Warnf("plan load failed for user %s (defaulting to free): %v", pc.UserID, err)
	}
	tier := plan.Resolve(planRec, now)

	stored, err := e.store.Settings(ctx, pc.UserID)
	if err != nil {
		logrus.Warnf("settings load failed for user %s (using defaults): %v", pc.UserID, err)
	}
	settings := plan.EffectiveSettings(tier, stored)

	counters, err := e.store.Counters(ctx, pc.UserID)
	if err != nil {
		logrus.Warnf("counters load failed for user %s (defaulting to zero): %v", pc.UserID, err)
	}

	blocked, err := e.store.BlockedChannels(ctx, pc.UserID)
	if err != nil {
		logrus.Warnf("block list load failed for user %s: %v", pc.UserID, err)
	}

	dec := decision.Evaluate(decision.Context{
		Now:                now,
		Tier:               tier,
		Settings:           settings,
		Page:               pc.Page,
		Channel:            pc.Channel,
		SearchesToday:      counters.SearchesToday,
		WatchSecondsToday:  counters.WatchSecondsToday,
		SearchThreshold:    e.table.SearchThreshold(tier),
		ShortsBlockedToday: counters.ShortsBlockedToday,
		GlobalBlocked:      counters.GlobalBlocked,
		UnlockedUntil:      counters.UnlockedUntil,
		BlockedChannels:    blocked,
	})

	metrics.DecisionsTotal.WithLabelValues(string(dec.Reason), strconv.FormatBool(dec.Blocked)).Inc()

	res := &PageResult{Decision: dec, Tier: tier, Counters: counters}
	e.afterDecision(ctx, pc, dec, &counters, now)
	res.Counters = counters

	if pc.Page == decision.PageWatch && pc.Channel != "" {
		if channels, err := e.store.SpiralChannels(ctx, pc.UserID); err == nil {
			if rec, ok := channels[pc.Channel]; ok {
				res.SpiralInfo = &rec
			}
		}
	}

	if pc.Page == decision.PageWatch || pc.Page == decision.PageShorts {
		if locked, until, err := e.tracker.ActiveLockout(ctx, pc.UserID, now); err == nil && locked {
			res.LockoutUntil = until
		}
	}

	return res, nil
}

// afterDecision performs the counter mutations the pure engine is not
// allowed to: latch the global block when the time limit first trips, and
// count visits on allowed pages.
func (e *Engine) afterDecision(ctx context.Context, pc PageContext, dec decision.Decision, counters *state.Counters, now time.Time) {
	changed := false

	if dec.Blocked && dec.Reason == decision.ReasonTimeLimit && !counters.GlobalBlocked {
		counters.GlobalBlocked = true
		changed = true
		logrus.Infof("global block latched for user %s", pc.UserID)
	}

	if !dec.Blocked {
		switch pc.Page {
		case decision.PageSearch:
			counters.SearchesToday++
			changed = true
		case decision.PageWatch:
			counters.WatchVisitsToday++
			changed = true
		case decision.PageShorts:
			counters.ShortsVisitsToday++
			changed = true
		}
	}

	if changed {
		if err := e.store.SaveCounters(ctx, pc.UserID, *counters); err != nil {
			logrus.Warnf("counter update failed for user %s (tolerated): %v", pc.UserID, err)
		}
	}
}

func countRotations(r state.RotationResult) {
	if r.Daily {
		metrics.RotationsTotal.WithLabelValues("daily").Inc()
	}
	if r.Weekly {
		metrics.RotationsTotal.WithLabelValues("weekly").Inc()
	}
	if r.Monthly {
		metrics.RotationsTotal.WithLabelValues("monthly").Inc()
	}
}
