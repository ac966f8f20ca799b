package builtin

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/nudge"
)

// LogSink writes events to the structured log. Mostly useful in development
// and as a durable audit trail of what interventions fired.
type LogSink struct {
	config nudge.SinkConfig
}

// NewLogSink creates a log sink from config.
func NewLogSink(config nudge.SinkConfig) (*LogSink, error) {
	return &LogSink{config: config}, nil
}

// ID implements nudge.Sink.
func (s *LogSink) ID() string {
	return s.config.ID
}

// Deliver implements nudge.Sink.
func (s *LogSink) Deliver(ctx context.Context, ev *nudge.Event) error {
	logrus.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"user_id":  ev.UserID,
		"kind":     ev.Kind,
		"level":    ev.Level,
		"category": ev.Category,
		"channel":  ev.Channel,
	}).Info("nudge event")
	return nil
}

// Config implements nudge.Sink.
func (s *LogSink) Config() nudge.SinkConfig {
	return s.config
}
