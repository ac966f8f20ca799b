// Package plan resolves the stored raw plan into an effective tier and
// merges stored user settings with plan-enforced values. Everything here is
// pure and total: bad input degrades to the free tier, never to an error.
package plan

import (
	"time"

	"github.com/focusloop/attention-budget/pkg/state"
)

// Tier is the effective plan tier used by the decision engine.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierTrial Tier = "trial"
	// TierTest never blocks and never rate-limits. Used by automated checks
	// against production builds.
	TierTest Tier = "test"
)

// Resolve computes the effective tier from a raw stored plan. An expired
// trial collapses to free; an unexpired trial keeps its trial identity (the
// presentation layer shows trial banners) but is treated as pro everywhere
// it matters. Missing or unrecognized input resolves to free.
func Resolve(record state.PlanRecord, now time.Time) Tier {
	switch Tier(record.Tier) {
	case TierFree:
		return TierFree
	case TierPro:
		return TierPro
	case TierTest:
		return TierTest
	case TierTrial:
		if days := record.TrialDaysLeft(now); days != nil && *days <= 0 {
			return TierFree
		}
		return TierTrial
	default:
		return TierFree
	}
}

// Entitled reports whether the tier gets pro-level features. Trial counts.
func Entitled(t Tier) bool {
	return t == TierPro || t == TierTrial || t == TierTest
}
