package stores

import (
	"sync"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
)

// EventLog is the append-only bounded buffer of raw events, source of truth
// for all derived aggregates. When capacity is exceeded the oldest entries
// are evicted first; losing the oldest history is the accepted
// data-retention tradeoff.
type EventLog struct {
	events []*event.Event
	max    int
	mu     sync.RWMutex
	logger *logging.ChanneledLogger
}

// NewEventLog creates an event log bounded at max entries.
func NewEventLog(max int, logger *logging.ChanneledLogger) *EventLog {
	if logger != nil {
		logger.State().Info("Initializing event log", "capacity", max)
	}
	return &EventLog{
		events: make([]*event.Event, 0),
		max:    max,
		logger: logger,
	}
}

// Append adds an event, evicting oldest-first past capacity. Returns the
// number of evicted events.
func (el *EventLog) Append(e *event.Event) int {
	el.mu.Lock()
	defer el.mu.Unlock()

	el.events = append(el.events, e)
	evicted := 0
	if len(el.events) > el.max {
		evicted = len(el.events) - el.max
		remaining := make([]*event.Event, el.max)
		copy(remaining, el.events[evicted:])
		el.events = remaining
	}
	if evicted > 0 && el.logger != nil {
		el.logger.State().Debug("Event log evicted oldest entries", "evicted", evicted, "capacity", el.max)
	}
	return evicted
}

// All returns a snapshot of the log in append order.
func (el *EventLog) All() []*event.Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]*event.Event, len(el.events))
	copy(out, el.events)
	return out
}

// ForVisitor returns the retained events for one visitor, in append order.
func (el *EventLog) ForVisitor(visitorID string) []*event.Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	var out []*event.Event
	for _, e := range el.events {
		if e.VisitorID == visitorID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Restore replaces the log from a persisted snapshot, re-applying the
// capacity bound.
func (el *EventLog) Restore(events []*event.Event) {
	el.mu.Lock()
	defer el.mu.Unlock()

	if len(events) > el.max {
		events = events[len(events)-el.max:]
	}
	el.events = make([]*event.Event, len(events))
	copy(el.events, events)

	if el.logger != nil {
		el.logger.State().Info("Event log restored", "count", len(el.events))
	}
}
