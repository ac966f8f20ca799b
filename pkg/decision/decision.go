// Package decision implements the pure block/allow evaluation for a single
// page visit. It has no side effects and touches no storage; all counters
// are loaded (and rotated) by collaborators before Evaluate is called.
package decision

import (
	"strings"
	"time"

	"github.com/focusloop/attention-budget/pkg/plan"
)

// PageType classifies the page being visited.
type PageType string

const (
	PageHome   PageType = "HOME"
	PageSearch PageType = "SEARCH"
	PageWatch  PageType = "WATCH"
	PageShorts PageType = "SHORTS"
	PageOther  PageType = "OTHER"
)

// Scope says what a block applies to.
type Scope string

const (
	ScopeNone   Scope = "none"
	ScopeShorts Scope = "shorts"
	ScopeSearch Scope = "search"
	ScopeGlobal Scope = "global"
	ScopeWatch  Scope = "watch"
)

// Reason is the closed set of decision reasons.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonUnlocked        Reason = "unlocked"
	ReasonChannelBlocked  Reason = "channel_blocked"
	ReasonTimeLimit       Reason = "time_limit"
	ReasonStrictShorts    Reason = "strict_shorts"
	ReasonSearchThreshold Reason = "search_threshold"
)

// Context carries everything Evaluate needs. Counters must already be
// rotation-checked; Evaluate trusts them as current-period values.
type Context struct {
	Now      time.Time
	Tier     plan.Tier
	Settings plan.Settings
	Page     PageType
	Channel  string

	SearchesToday     int
	WatchSecondsToday int
	SearchThreshold   int

	ShortsBlockedToday bool // self-imposed "block shorts today"
	GlobalBlocked      bool // time-limit latch for this period
	UnlockedUntil      time.Time

	BlockedChannels []string
}

// Decision is the pure output of an evaluation.
type Decision struct {
	Blocked bool   `json:"blocked"`
	Scope   Scope  `json:"scope"`
	Reason  Reason `json:"reason"`
}

func allow(reason Reason) Decision {
	return Decision{Blocked: false, Scope: ScopeNone, Reason: reason}
}

func block(scope Scope, reason Reason) Decision {
	return Decision{Blocked: true, Scope: scope, Reason: reason}
}

// Evaluate runs the decision ladder; the first matching rule wins.
func Evaluate(c Context) Decision {
	// 1. Test tier is never blocked.
	if c.Tier == plan.TierTest {
		return allow(ReasonOK)
	}

	// 2. Active temporary unlock.
	if !c.UnlockedUntil.IsZero() && c.Now.Before(c.UnlockedUntil) {
		return allow(ReasonUnlocked)
	}

	// 3. Channel block list on watch pages.
	if c.Page == PageWatch && c.Channel != "" && channelBlocked(c.Channel, c.BlockedChannels) {
		return block(ScopeWatch, ReasonChannelBlocked)
	}

	// 4+5. Daily time limit, direct or latched. Home stays navigable in
	// both cases so the user is never trapped on a blocked page with
	// nowhere to go.
	if c.Page != PageHome {
		limitSeconds := c.Settings.DailyLimitMinutes * 60
		if limitSeconds > 0 && c.WatchSecondsToday >= limitSeconds {
			return block(ScopeGlobal, ReasonTimeLimit)
		}
		if c.GlobalBlocked {
			return block(ScopeGlobal, ReasonTimeLimit)
		}
	}

	// 6. Shorts.
	if c.Page == PageShorts {
		if c.ShortsBlockedToday || c.Settings.ShortsMode == plan.ShortsHard {
			return block(ScopeShorts, ReasonStrictShorts)
		}
	}

	// 7. Search threshold.
	if c.Page == PageSearch && c.SearchesToday >= c.SearchThreshold {
		return block(ScopeSearch, ReasonSearchThreshold)
	}

	// 8. Allowed.
	return allow(ReasonOK)
}

// channelBlocked matches case-insensitively, exact or substring in either
// direction, so a list entry "Eddie Hall" also blocks "Eddie Hall The Beast"
// and vice versa. Substring matching can false-positive on short or common
// channel names; that trade-off is deliberate and documented, not a bug to
// quietly fix.
func channelBlocked(channel string, blocked []string) bool {
	current := strings.ToLower(strings.TrimSpace(channel))
	if current == "" {
		return false
	}
	for _, b := range blocked {
		entry := strings.ToLower(strings.TrimSpace(b))
		if entry == "" {
			continue
		}
		if strings.Contains(current, entry) || strings.Contains(entry, current) {
			return true
		}
	}
	return false
}
