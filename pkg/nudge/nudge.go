// Package nudge carries intervention events from the analytics layers to the
// presentation layer. Sinks are registered in a Registry and fed by the
// Dispatcher; the engine never knows where events end up.
package nudge

import (
	"time"

	"github.com/google/uuid"

	"github.com/focusloop/attention-budget/pkg/state"
)

// Kind identifies the subsystem that produced an event.
type Kind string

const (
	KindBehaviorLoop Kind = "behavior_loop"
	KindSpiral       Kind = "spiral"
)

// Level is the escalation tier of an event.
type Level string

const (
	LevelNone   Level = ""
	LevelNudge1 Level = "nudge1"
	LevelNudge2 Level = "nudge2"
	LevelBreak  Level = "break"
)

// Event is one intervention for the presentation layer to render.
type Event struct {
	ID       string         `json:"id"`
	UserID   string         `json:"userId"`
	Kind     Kind           `json:"kind"`
	Level    Level          `json:"level"`
	Category state.Category `json:"category,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	VideoID  string         `json:"videoId,omitempty"`
	Message  string         `json:"message,omitempty"`
	At       time.Time      `json:"at"`
	// LockoutUntil is set on break-level events.
	LockoutUntil time.Time `json:"lockoutUntil,omitempty"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(userID string, kind Kind, level Level, category state.Category, at time.Time) *Event {
	return &Event{
		ID:       uuid.NewString(),
		UserID:   userID,
		Kind:     kind,
		Level:    level,
		Category: category,
		At:       at,
	}
}
