// Package builtin provides the built-in nudge sinks and registers their
// factories with the nudge package.
package builtin

import (
	"github.com/focusloop/attention-budget/pkg/nudge"
)

// Sink type identifiers understood by the engine config.
const (
	TypeLog     = "log"
	TypeWebhook = "webhook"
)

// RegisterSinkTypes registers all built-in sink factories. Call once during
// application startup, before sinks are created from config.
func RegisterSinkTypes() {
	nudge.RegisterSinkType(TypeLog, func(config nudge.SinkConfig) (nudge.Sink, error) {
		return NewLogSink(config)
	})
	nudge.RegisterSinkType(TypeWebhook, func(config nudge.SinkConfig) (nudge.Sink, error) {
		return NewWebhookSink(config)
	})
}
