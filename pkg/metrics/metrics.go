// Package metrics defines the application's Prometheus collectors. They are
// registered by the metrics server and incremented where the events happen.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DecisionsTotal counts page-visit decisions by reason.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attention_decisions_total",
			Help: "Total number of page-visit decisions",
		},
		[]string{"reason", "blocked"},
	)

	// NudgesTotal counts emitted nudge events by kind and level.
	NudgesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attention_nudges_total",
			Help: "Total number of nudge events emitted",
		},
		[]string{"kind", "level"},
	)

	// SpiralsTotal counts spiral detections, including suppressed ones.
	SpiralsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attention_spirals_total",
			Help: "Total number of spiral detections",
		},
		[]string{"suppressed"},
	)

	// RotationsTotal counts period rollovers performed.
	RotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attention_rotations_total",
			Help: "Total number of counter rotations performed",
		},
		[]string{"period"},
	)
)

// Collectors returns everything for registry registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{DecisionsTotal, NudgesTotal, SpiralsTotal, RotationsTotal}
}
