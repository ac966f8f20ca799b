package nudge

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher fans events out to every registered sink. Delivery failures
// are logged and swallowed; an intervention that fails to reach one sink
// must not disturb the decision path that produced it.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch delivers the event to all sinks. Nil events are ignored so
// callers can pass tracker results through unconditionally.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) {
	if ev == nil {
		return
	}
	for _, sink := range d.registry.GetAll() {
		if err := sink.Deliver(ctx, ev); err != nil {
			logrus.Errorf("sink %s failed to deliver event %s: %v", sink.ID(), ev.ID, err)
		}
	}
}

// DispatchAll delivers multiple events in order.
func (d *Dispatcher) DispatchAll(ctx context.Context, evs []*Event) {
	for _, ev := range evs {
		d.Dispatch(ctx, ev)
	}
}
