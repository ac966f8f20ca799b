package state

import (
	"time"
)

// Storage field names. These are the logical keys of the per-user record;
// the backend is free to map them however it likes.
const (
	FieldPlan             = "plan"
	FieldSettings         = "settings"
	FieldCounters         = "counters"
	FieldResetKeys        = "resetKeys"
	FieldBlockedChannels  = "blockedChannels"
	FieldWatchHistory     = "watchHistory"
	FieldSpiralChannels   = "spiralChannels"
	FieldChannelLifetime  = "channelLifetime"
	FieldSpiralEvents     = "spiralEvents"
	FieldSpiralDismissals = "spiralDismissals"
	FieldBehaviorLoop     = "behaviorLoop"

	archiveFieldPrefix = "archive:"
)

// PlanRecord is the raw stored plan. The effective tier is recomputed from
// it on every read; see pkg/plan.
type PlanRecord struct {
	Tier           string     `json:"tier"`
	TrialExpiresAt *time.Time `json:"trialExpiresAt,omitempty"`
}

// FocusWindow is a daily time window during which stricter rules may apply.
type FocusWindow struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "HH:MM"
	End     string `json:"end"`   // "HH:MM"
}

// StoredSettings are the user's raw preferences. All fields are optional;
// plan enforcement and defaulting happen in pkg/plan, never here.
// BlockShorts and DailyLimit are legacy fields kept for records written by
// older clients; they are mapped onto the canonical fields on read.
type StoredSettings struct {
	ShortsMode          *string      `json:"shortsMode,omitempty"` // hard|timed|off
	HideRecommendations *bool        `json:"hideRecommendations,omitempty"`
	DailyLimitMinutes   *int         `json:"dailyLimitMinutes,omitempty"`
	NudgeStyle          *string      `json:"nudgeStyle,omitempty"` // gentle|direct|firm
	FocusWindow         *FocusWindow `json:"focusWindow,omitempty"`

	// Legacy fields.
	BlockShorts *bool `json:"blockShorts,omitempty"`
	DailyLimit  *int  `json:"dailyLimit,omitempty"`
}

// Counters is the per-period counter set. All fields are only valid for the
// period matching the stored reset keys; read them after MaybeRotate.
type Counters struct {
	SearchesToday      int       `json:"searchesToday"`
	WatchVisitsToday   int       `json:"watchVisitsToday"`
	WatchSecondsToday  int       `json:"watchSecondsToday"`
	ShortsVisitsToday  int       `json:"shortsVisitsToday"`
	ShortsSecondsToday int       `json:"shortsSecondsToday"`
	ShortsEngagedToday int       `json:"shortsEngagedToday"`
	ShortsBlockedToday bool      `json:"shortsBlockedToday"` // self-imposed
	GlobalBlocked      bool      `json:"globalBlocked"`      // time-limit latch
	UnlockedUntil      time.Time `json:"unlockedUntil"`
}

// ResetKeys records the last rotation key per period.
type ResetKeys struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
}

// WatchHistoryEntry is one completed video view. History is append-only and
// pruned to a rolling 60-day window on each write.
type WatchHistoryEntry struct {
	Channel          string    `json:"channel"`
	VideoID          string    `json:"videoId"`
	Title            string    `json:"title,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	WatchSeconds     int       `json:"watchSeconds"`
	DistractionLevel string    `json:"distractionLevel,omitempty"`
	CategoryPrimary  string    `json:"categoryPrimary,omitempty"`
	Confidence       float64   `json:"confidence,omitempty"`
}

// ChannelSpiralRecord tracks weighted consumption of one channel. The weekly
// component decays by whole-day intervals since the last watch.
type ChannelSpiralRecord struct {
	TodayWeighted float64   `json:"todayWeighted"`
	WeekWeighted  float64   `json:"weekWeighted"`
	WeekSeconds   int       `json:"weekSeconds"`
	LastWatchedAt time.Time `json:"lastWatchedAt"`
}

// ChannelLifetimeStats only ever grow; rotation never touches them.
type ChannelLifetimeStats struct {
	TotalVideos    int       `json:"totalVideos"`
	TotalSeconds   int       `json:"totalSeconds"`
	FirstWatchedAt time.Time `json:"firstWatchedAt"`
	LastWatchedAt  time.Time `json:"lastWatchedAt"`
}

// SpiralEvent is an emitted spiral detection, kept in a 30-day rolling log.
type SpiralEvent struct {
	ID          string    `json:"id"`
	Channel     string    `json:"channel"`
	Count       float64   `json:"count"`
	TimeMinutes int       `json:"timeMinutes"`
	DetectedAt  time.Time `json:"detectedAt"`
	Message     string    `json:"message"`
}

// Category is a behavior-loop content classification bucket.
type Category string

const (
	CategoryDistracting Category = "distracting"
	CategoryProductive  Category = "productive"
	CategoryNeutral     Category = "neutral"
)

// BehaviorCounters are the daily behavior-loop totals plus the break lockout.
// Reset by daily rotation and, selectively, on lockout expiry.
type BehaviorCounters struct {
	DistractingCount   int `json:"distractingCount"`
	DistractingSeconds int `json:"distractingSeconds"`
	ProductiveCount    int `json:"productiveCount"`
	ProductiveSeconds  int `json:"productiveSeconds"`
	NeutralCount       int `json:"neutralCount"`
	NeutralSeconds     int `json:"neutralSeconds"`

	BreakLockoutUntil time.Time `json:"breakLockoutUntil"`
	// BreakCategory records which category tripped the active lockout so the
	// right counters are cleared when it expires.
	BreakCategory Category `json:"breakCategory,omitempty"`
}

// DailyArchive snapshots one day's totals before a daily rotation wipes them.
type DailyArchive struct {
	Day        string           `json:"day"`
	Counters   Counters         `json:"counters"`
	Behavior   BehaviorCounters `json:"behavior"`
	ArchivedAt time.Time        `json:"archivedAt"`
}

// TrialDaysLeft computes whole days remaining on a trial, rounding up so a
// trial expiring later today still counts as one day. Returns nil when the
// record carries no expiry.
func (p PlanRecord) TrialDaysLeft(now time.Time) *int {
	if p.TrialExpiresAt == nil {
		return nil
	}
	remaining := p.TrialExpiresAt.Sub(now)
	days := 0
	if remaining > 0 {
		days = int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	}
	return &days
}
