package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveSessionTrackerExpiresLazily(t *testing.T) {
	tracker := NewLiveSessionTracker(5*time.Minute, nil)
	now := time.Now().UTC()

	tracker.Update("v-fresh", "site-1", "/home", now)
	tracker.Update("v-stale", "site-1", "/about", now.Add(-10*time.Minute))

	active := tracker.ListActive("site-1", now)
	require.Len(t, active, 1)
	assert.Equal(t, "v-fresh", active[0].VisitorID)

	// The stale entry was evicted by the read, not just filtered out.
	assert.Equal(t, 1, tracker.ActiveCount("", now))
}

func TestLiveSessionTrackerEvictsAcrossSiteFilter(t *testing.T) {
	tracker := NewLiveSessionTracker(5*time.Minute, nil)
	now := time.Now().UTC()

	tracker.Update("v-other-stale", "site-2", "/x", now.Add(-time.Hour))
	tracker.Update("v1", "site-1", "/home", now)

	// Reading site-1 still sweeps the expired site-2 entry.
	tracker.ListActive("site-1", now)
	assert.Empty(t, tracker.ListActive("site-2", now))
}

func TestLiveSessionTrackerUpdateRefreshes(t *testing.T) {
	tracker := NewLiveSessionTracker(5*time.Minute, nil)
	now := time.Now().UTC()

	tracker.Update("v1", "site-1", "/home", now.Add(-4*time.Minute))
	tracker.Update("v1", "site-1", "/pricing", now)

	active := tracker.ListActive("site-1", now.Add(2*time.Minute))
	require.Len(t, active, 1)
	assert.Equal(t, "/pricing", active[0].CurrentPage)
	assert.Equal(t, now, active[0].LastActivity)
}

func TestLiveSessionTrackerBoundaryIsInclusive(t *testing.T) {
	tracker := NewLiveSessionTracker(5*time.Minute, nil)
	now := time.Now().UTC()

	// Exactly at the window boundary counts as active.
	tracker.Update("v1", "site-1", "/home", now.Add(-5*time.Minute))
	assert.Equal(t, 1, tracker.ActiveCount("site-1", now))
}
