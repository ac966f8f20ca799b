package plan

import "math"

// Unlimited marks a threshold that never trips.
const Unlimited = math.MaxInt32

// Limits are the plan-enforced thresholds for one tier.
type Limits struct {
	StrictShorts      bool `yaml:"strictShorts"`
	SearchThreshold   int  `yaml:"searchThreshold"`
	DailyLimitMinutes int  `yaml:"dailyLimitMinutes"`
}

// Table maps each tier to its limits. Zero-value lookups fall back to the
// free tier, the most restrictive one.
type Table map[Tier]Limits

// DefaultTable returns the built-in plan table.
func DefaultTable() Table {
	return Table{
		TierFree: {
			StrictShorts:      true,
			SearchThreshold:   5,
			DailyLimitMinutes: 60,
		},
		TierPro: {
			SearchThreshold:   15,
			DailyLimitMinutes: 90,
		},
		TierTrial: {
			SearchThreshold:   15,
			DailyLimitMinutes: 90,
		},
		TierTest: {
			SearchThreshold: Unlimited,
			// 0 disables the daily limit entirely.
			DailyLimitMinutes: 0,
		},
	}
}

// Limits returns the limits for a tier. Trial shares pro limits when it has
// no entry of its own; anything unknown gets free limits.
func (t Table) Limits(tier Tier) Limits {
	if l, ok := t[tier]; ok {
		return l
	}
	if tier == TierTrial {
		if l, ok := t[TierPro]; ok {
			return l
		}
	}
	return t[TierFree]
}

// SearchThreshold returns the per-day search cap for a tier.
func (t Table) SearchThreshold(tier Tier) int {
	if tier == TierTest {
		return Unlimited
	}
	return t.Limits(tier).SearchThreshold
}
