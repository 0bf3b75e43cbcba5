package stores

import (
	"fmt"
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(visitorID, page string) *event.Event {
	return event.New("site-1", visitorID, "sess-1", event.TypePageview, time.Now().UTC(), map[string]any{"page": page})
}

func TestEventLogEvictsOldestFirst(t *testing.T) {
	log := NewEventLog(3, nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, log.Append(makeEvent("v1", fmt.Sprintf("/p%d", i))))
	}
	require.Equal(t, 3, log.Len())

	evicted := log.Append(makeEvent("v1", "/p3"))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 3, log.Len())

	all := log.All()
	require.Len(t, all, 3)
	assert.Equal(t, "/p1", all[0].Page(), "oldest event should have been evicted")
	assert.Equal(t, "/p3", all[2].Page())
}

func TestEventLogForVisitor(t *testing.T) {
	log := NewEventLog(10, nil)
	log.Append(makeEvent("v1", "/a"))
	log.Append(makeEvent("v2", "/b"))
	log.Append(makeEvent("v1", "/c"))

	events := log.ForVisitor("v1")
	require.Len(t, events, 2)
	assert.Equal(t, "/a", events[0].Page())
	assert.Equal(t, "/c", events[1].Page())

	assert.Empty(t, log.ForVisitor("v3"))
}

func TestEventLogRestoreReappliesCapacity(t *testing.T) {
	log := NewEventLog(2, nil)

	events := []*event.Event{
		makeEvent("v1", "/old"),
		makeEvent("v1", "/mid"),
		makeEvent("v1", "/new"),
	}
	log.Restore(events)

	all := log.All()
	require.Len(t, all, 2)
	assert.Equal(t, "/mid", all[0].Page(), "restore keeps the newest entries")
	assert.Equal(t, "/new", all[1].Page())
}
