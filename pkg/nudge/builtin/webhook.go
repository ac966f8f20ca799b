package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/focusloop/attention-budget/pkg/nudge"
)

// WebhookSink POSTs events as JSON to a configured URL. Used to forward
// interventions to the account service so other devices can render them.
type WebhookSink struct {
	config nudge.SinkConfig
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink. The "url" parameter is required;
// "timeout_seconds" defaults to 5.
func NewWebhookSink(config nudge.SinkConfig) (*WebhookSink, error) {
	url, ok := config.Parameters["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("webhook sink %s: missing url parameter", config.ID)
	}

	timeout := 5 * time.Second
	if secs, ok := config.Parameters["timeout_seconds"].(int); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return &WebhookSink{
		config: config,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ID implements nudge.Sink.
func (s *WebhookSink) ID() string {
	return s.config.ID
}

// Deliver implements nudge.Sink.
func (s *WebhookSink) Deliver(ctx context.Context, ev *nudge.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", ev.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Config implements nudge.Sink.
func (s *WebhookSink) Config() nudge.SinkConfig {
	return s.config
}
