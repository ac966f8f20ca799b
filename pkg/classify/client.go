package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/state"
)

// HTTPClientConfig tunes the classifier HTTP client.
type HTTPClientConfig struct {
	Endpoint string
	Timeout  time.Duration
	// MaxRetries bounds transient-error retries within a single Classify
	// call. The overall call still respects the context deadline.
	MaxRetries uint64
}

// HTTPClient calls a remote classification endpoint. Every call carries a
// bounded timeout; on failure the caller receives an error and should fall
// back to Unknown().
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient creates a classifier client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type classifyRequest struct {
	VideoID string `json:"videoId"`
	Channel string `json:"channel"`
	Title   string `json:"title,omitempty"`
}

type classifyResponse struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify implements Classifier.
func (c *HTTPClient) Classify(ctx context.Context, v Video) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var resp classifyResponse
	operation := func() error {
		body, err := json.Marshal(classifyRequest{VideoID: v.VideoID, Channel: v.Channel, Title: v.Title})
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode >= 500 {
			return fmt.Errorf("classifier returned %d", httpResp.StatusCode)
		}
		if httpResp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("classifier returned %d", httpResp.StatusCode))
		}

		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return backoff.Permanent(fmt.Errorf("malformed classifier response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		logrus.Warnf("classification failed for video %s: %v", v.VideoID, err)
		return Unknown(), err
	}

	return Classification{
		Category:   parseCategory(resp.Category),
		Label:      resp.Label,
		Confidence: resp.Confidence,
		Known:      true,
	}, nil
}

func parseCategory(raw string) state.Category {
	switch state.Category(raw) {
	case state.CategoryDistracting:
		return state.CategoryDistracting
	case state.CategoryProductive:
		return state.CategoryProductive
	default:
		return state.CategoryNeutral
	}
}
