package messaging

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewEventBroadcaster(4, nil)

	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	require.Equal(t, 2, b.SubscriberCount())

	e := event.New("site-1", "v1", "sess-1", event.TypePageview, time.Now().UTC(), map[string]any{"page": "/home"})
	b.Publish(e, &visitor.Summary{VisitorID: "v1", EngagementScore: 42})

	for _, ch := range []chan string{ch1, ch2} {
		select {
		case msg := <-ch:
			require.True(t, strings.HasPrefix(msg, "data: "))
			require.True(t, strings.HasSuffix(msg, "\n\n"))

			var payload LiveEvent
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(msg, "data: "))), &payload))
			assert.Equal(t, "event", payload.Type)
			assert.Equal(t, "/home", payload.Event.Page())
			assert.Equal(t, 42, payload.Visitor.EngagementScore)
		default:
			t.Fatal("expected a buffered message")
		}
	}
}

func TestBroadcasterDropsStalledSubscriber(t *testing.T) {
	b := NewEventBroadcaster(1, nil)

	_, stalled := b.Subscribe()
	_, healthy := b.Subscribe()

	e := event.New("site-1", "v1", "sess-1", event.TypePageview, time.Now().UTC(), nil)
	summary := &visitor.Summary{VisitorID: "v1"}

	// First publish fills both single-slot buffers; only the healthy
	// subscriber drains before the next publish.
	b.Publish(e, summary)
	<-healthy

	b.Publish(e, summary)

	assert.Equal(t, 1, b.SubscriberCount())

	// The stalled channel was closed after its buffered message.
	<-stalled
	_, open := <-stalled
	assert.False(t, open)

	select {
	case <-healthy:
	default:
		t.Fatal("expected healthy subscriber to hold the second message")
	}
}

func TestBroadcasterUnsubscribeIsIdempotent(t *testing.T) {
	b := NewEventBroadcaster(4, nil)

	id, ch := b.Subscribe()
	b.Unsubscribe(id)
	require.Equal(t, 0, b.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// A second unsubscribe for the same id is a no-op.
	b.Unsubscribe(id)
}
