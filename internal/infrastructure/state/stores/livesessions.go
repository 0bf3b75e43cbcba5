package stores

import (
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
)

// LiveSession is the ephemeral activity record for one visitor. It is never
// persisted.
type LiveSession struct {
	VisitorID    string    `json:"visitorId"`
	SiteID       string    `json:"siteId"`
	CurrentPage  string    `json:"currentPage"`
	LastActivity time.Time `json:"lastActivity"`
}

// LiveSessionTracker holds visitor -> last-activity state with time-based
// expiry. Eviction is lazy: any read first drops entries older than the
// inactivity window, so no scheduled cleanup task exists.
type LiveSessionTracker struct {
	sessions map[string]*LiveSession // visitorId -> session
	window   time.Duration
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewLiveSessionTracker creates a tracker with the given inactivity window.
func NewLiveSessionTracker(window time.Duration, logger *logging.ChanneledLogger) *LiveSessionTracker {
	if logger != nil {
		logger.State().Info("Initializing live session tracker", "window", window)
	}
	return &LiveSessionTracker{
		sessions: make(map[string]*LiveSession),
		window:   window,
		logger:   logger,
	}
}

// Update records activity for a visitor.
func (lt *LiveSessionTracker) Update(visitorID, siteID, currentPage string, at time.Time) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.sessions[visitorID] = &LiveSession{
		VisitorID:    visitorID,
		SiteID:       siteID,
		CurrentPage:  currentPage,
		LastActivity: at,
	}
}

// ListActive returns sessions active within the window, optionally filtered
// by site. Expired entries are evicted as a side effect of the read,
// whether or not they match the filter.
func (lt *LiveSessionTracker) ListActive(siteID string, now time.Time) []*LiveSession {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	cutoff := now.Add(-lt.window)
	var active []*LiveSession
	for id, s := range lt.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(lt.sessions, id)
			continue
		}
		if siteID != "" && s.SiteID != siteID {
			continue
		}
		active = append(active, s)
	}
	return active
}

// ActiveCount returns the number of active sessions, with the same lazy
// eviction discipline as ListActive.
func (lt *LiveSessionTracker) ActiveCount(siteID string, now time.Time) int {
	return len(lt.ListActive(siteID, now))
}
