package plan

import (
	"github.com/focusloop/attention-budget/pkg/state"
)

// ShortsMode controls how shorts-type pages are handled.
type ShortsMode string

const (
	ShortsHard  ShortsMode = "hard"  // always blocked
	ShortsTimed ShortsMode = "timed" // allowed within the daily allowance
	ShortsOff   ShortsMode = "off"   // no shorts handling
)

// NudgeStyle selects the tone of intervention copy.
type NudgeStyle string

const (
	NudgeGentle NudgeStyle = "gentle"
	NudgeDirect NudgeStyle = "direct"
	NudgeFirm   NudgeStyle = "firm"
)

// Settings is the fully-populated effective configuration. It is derived on
// every evaluation and never persisted.
type Settings struct {
	ShortsMode          ShortsMode
	HideRecommendations bool
	DailyLimitMinutes   int
	NudgeStyle          NudgeStyle
	FocusWindow         state.FocusWindow
}

const (
	defaultDailyLimitMinutes = 60
	defaultFocusStart        = "13:00"
	defaultFocusEnd          = "21:00"
)

// EffectiveSettings merges stored settings with plan enforcement.
//
// The free tier forces hard shorts blocking, hidden recommendations and the
// 60-minute daily limit regardless of stored overrides; that is a policy
// invariant, not a default. Every other tier, test and unknown included,
// uses stored values where set and the documented defaults where unset; only
// the free tier overrides what the user stored.
func EffectiveSettings(tier Tier, stored *state.StoredSettings) Settings {
	stored = migrateLegacy(stored)

	s := Settings{
		ShortsMode:          ShortsHard,
		HideRecommendations: true,
		DailyLimitMinutes:   defaultDailyLimitMinutes,
		NudgeStyle:          NudgeFirm,
		FocusWindow:         state.FocusWindow{Start: defaultFocusStart, End: defaultFocusEnd},
	}

	if tier == TierFree {
		// Enforced values; only the cosmetic fields follow the store.
		if stored.NudgeStyle != nil {
			s.NudgeStyle = NudgeStyle(*stored.NudgeStyle)
		}
		if stored.FocusWindow != nil {
			s.FocusWindow = *stored.FocusWindow
		}
		return s
	}

	if stored.ShortsMode != nil {
		s.ShortsMode = ShortsMode(*stored.ShortsMode)
	}
	if stored.HideRecommendations != nil {
		s.HideRecommendations = *stored.HideRecommendations
	}
	if stored.DailyLimitMinutes != nil {
		s.DailyLimitMinutes = *stored.DailyLimitMinutes
	}
	if stored.NudgeStyle != nil {
		s.NudgeStyle = NudgeStyle(*stored.NudgeStyle)
	}
	if stored.FocusWindow != nil {
		s.FocusWindow = *stored.FocusWindow
	}

	return s
}

// migrateLegacy maps legacy fields onto the canonical ones before any tier
// logic runs. Canonical fields win when both are present.
func migrateLegacy(stored *state.StoredSettings) *state.StoredSettings {
	if stored == nil {
		return &state.StoredSettings{}
	}

	out := *stored
	if out.ShortsMode == nil && out.BlockShorts != nil {
		mode := string(ShortsOff)
		if *out.BlockShorts {
			mode = string(ShortsHard)
		}
		out.ShortsMode = &mode
	}
	if out.DailyLimitMinutes == nil && out.DailyLimit != nil {
		limit := *out.DailyLimit
		out.DailyLimitMinutes = &limit
	}
	return &out
}
