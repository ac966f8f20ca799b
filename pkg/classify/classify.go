// Package classify is the boundary to the external content classifier. The
// model itself is opaque; the engine only needs a category label and a
// confidence. Classifier failure is never allowed to block the user: callers
// fall back to an unknown/neutral classification and skip analytics updates
// for that tick.
package classify

import (
	"context"

	"github.com/focusloop/attention-budget/pkg/state"
)

// Classification is the classifier's verdict for one video.
type Classification struct {
	Category   state.Category `json:"category"`
	Label      string         `json:"label,omitempty"`
	Confidence float64        `json:"confidence"`
	// Known is false when the classifier failed or timed out and the
	// category is a fallback rather than a verdict.
	Known bool `json:"known"`
}

// Unknown is the fail-safe classification.
func Unknown() Classification {
	return Classification{Category: state.CategoryNeutral, Known: false}
}

// Video identifies the content to classify.
type Video struct {
	VideoID string `json:"videoId"`
	Channel string `json:"channel"`
	Title   string `json:"title,omitempty"`
}

// Classifier returns a classification for a video. Implementations must
// respect ctx deadlines; callers always set one.
type Classifier interface {
	Classify(ctx context.Context, v Video) (Classification, error)
}

// Static returns a fixed category for every video. Useful in tests and as a
// stand-in when no classifier endpoint is configured.
type Static struct {
	Category   state.Category
	Confidence float64
}

// Classify implements Classifier.
func (s Static) Classify(ctx context.Context, v Video) (Classification, error) {
	return Classification{Category: s.Category, Confidence: s.Confidence, Known: true}, nil
}
