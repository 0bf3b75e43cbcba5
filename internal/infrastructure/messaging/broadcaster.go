// Package messaging provides the live event fan-out implementations.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/metrics"
	"github.com/google/uuid"
)

// EventBroadcaster manages the SSE push subscribers. Delivery is
// best-effort broadcast: a subscriber whose channel cannot accept a message
// is dropped, and one subscriber's failure never affects the others.
type EventBroadcaster struct {
	subscribers map[string]chan string // subscriberId -> outbound channel
	bufferSize  int
	mu          sync.Mutex
	logger      *logging.ChanneledLogger
}

// LiveEvent is the enriched payload published per ingested event: the raw
// event plus a redacted visitor summary.
type LiveEvent struct {
	Type      string           `json:"type"`
	Event     *event.Event     `json:"event"`
	Visitor   *visitor.Summary `json:"visitor"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewEventBroadcaster creates an event broadcaster with per-subscriber
// buffers of the given size.
func NewEventBroadcaster(bufferSize int, logger *logging.ChanneledLogger) *EventBroadcaster {
	return &EventBroadcaster{
		subscribers: make(map[string]chan string),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers a new push subscriber and returns its generated id
// and outbound channel.
func (b *EventBroadcaster) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, b.bufferSize)

	b.mu.Lock()
	b.subscribers[id] = ch
	count := len(b.subscribers)
	b.mu.Unlock()

	metrics.StreamSubscribers.Set(float64(count))
	if b.logger != nil {
		b.logger.SSE().Debug("Push subscriber registered", "subscriberId", id, "subscribers", count)
	}
	return id, ch
}

// Unsubscribe removes a subscriber when its transport reports closure.
func (b *EventBroadcaster) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	ch, exists := b.subscribers[subscriberID]
	if exists {
		delete(b.subscribers, subscriberID)
	}
	count := len(b.subscribers)
	b.mu.Unlock()

	if exists {
		close(ch)
	}
	metrics.StreamSubscribers.Set(float64(count))
	if b.logger != nil {
		b.logger.SSE().Debug("Push subscriber unregistered", "subscriberId", subscriberID, "subscribers", count)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *EventBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Publish fans the enriched event out to all subscribers. A subscriber
// whose buffer is full is assumed dead and removed; delivery never blocks
// or retries.
func (b *EventBroadcaster) Publish(e *event.Event, summary *visitor.Summary) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.SSE().Error("Panic recovered in Publish", "error", r)
		}
	}()

	payload, err := json.Marshal(&LiveEvent{
		Type:      "event",
		Event:     e,
		Visitor:   summary,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		if b.logger != nil {
			b.logger.SSE().Error("Failed to marshal live event", "error", err.Error())
		}
		return
	}
	message := fmt.Sprintf("data: %s\n\n", payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- message:
		default:
			// Buffer full: the connection is stalled or gone. Drop it.
			delete(b.subscribers, id)
			close(ch)
			metrics.SubscribersDroppedTotal.Inc()
			metrics.StreamSubscribers.Set(float64(len(b.subscribers)))
			if b.logger != nil {
				b.logger.SSE().Warn("Dropped stalled push subscriber", "subscriberId", id)
			}
		}
	}
}
