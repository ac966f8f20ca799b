package behavior

import "time"

// PlaybackState is the coarse player state driving time accumulation.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateHidden  PlaybackState = "hidden"
)

// Accumulator turns discrete playback state transitions into accumulated
// watch seconds. Time counts while playing, and while hidden only if audio
// continues; paused time never counts. This replaces poll-based bookkeeping
// with an explicit state machine while keeping the same accumulated-seconds
// semantics.
type Accumulator struct {
	state   PlaybackState
	audible bool
	since   time.Time
	total   time.Duration
}

// NewAccumulator starts accumulating in the given state.
func NewAccumulator(initial PlaybackState, audible bool, at time.Time) *Accumulator {
	return &Accumulator{state: initial, audible: audible, since: at}
}

func (a *Accumulator) counting() bool {
	switch a.state {
	case StatePlaying:
		return true
	case StateHidden:
		return a.audible
	default:
		return false
	}
}

// Transition records a playback state change at the given time, folding any
// counted segment into the total first. Out-of-order timestamps are clamped
// to zero-length segments.
func (a *Accumulator) Transition(to PlaybackState, audible bool, at time.Time) {
	if a.counting() && at.After(a.since) {
		a.total += at.Sub(a.since)
	}
	a.state = to
	a.audible = audible
	a.since = at
}

// Seconds returns total counted watch seconds as of now, including the
// in-progress segment.
func (a *Accumulator) Seconds(now time.Time) int {
	total := a.total
	if a.counting() && now.After(a.since) {
		total += now.Sub(a.since)
	}
	return int(total / time.Second)
}
