// Package manager provides centralized access to the process-owned state
// collections by delegating to specialized stores.
package manager

import (
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/domain/site"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/stores"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// Manager owns all shared mutable state for the process: the identity
// store, the bounded event log, the tracked-link registry, the site store,
// and the live session tracker. Lifecycle is process start to shutdown,
// with an explicit load/flush boundary instead of ambient globals.
type Manager struct {
	Visitors     *stores.VisitorStore
	Events       *stores.EventLog
	Links        *stores.LinkRegistry
	Sites        *stores.SiteStore
	LiveSessions *stores.LiveSessionTracker
	logger       *logging.ChanneledLogger
}

// NewManager creates the state manager and its stores.
func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.State().Info("Initializing state manager",
			"stores", []string{"visitors", "events", "links", "sites", "liveSessions"},
			"eventLogMax", config.EventLogMax,
			"sessionWindow", config.SessionActiveWindow)
	}
	return &Manager{
		Visitors:     stores.NewVisitorStore(logger),
		Events:       stores.NewEventLog(config.EventLogMax, logger),
		Links:        stores.NewLinkRegistry(logger),
		Sites:        stores.NewSiteStore(logger),
		LiveSessions: stores.NewLiveSessionTracker(config.SessionActiveWindow, logger),
		logger:       logger,
	}
}

// Snapshot captures the four persisted collections. Live sessions are
// ephemeral and excluded.
type Snapshot struct {
	Sites    []*site.Site        `json:"sites"`
	Visitors []*visitor.Visitor  `json:"visitors"`
	Events   []*event.Event      `json:"events"`
	Links    []*link.TrackedLink `json:"trackedLinks"`
	SavedAt  time.Time           `json:"savedAt"`
}

// Snapshot returns a serializable copy of the persisted collections.
func (m *Manager) Snapshot() *Snapshot {
	return &Snapshot{
		Sites:    m.Sites.All(),
		Visitors: m.Visitors.All(),
		Events:   m.Events.All(),
		Links:    m.Links.All(),
		SavedAt:  time.Now().UTC(),
	}
}

// Restore loads the persisted collections into the stores. A nil snapshot
// leaves everything empty.
func (m *Manager) Restore(s *Snapshot) {
	if s == nil {
		return
	}
	m.Sites.Restore(s.Sites)
	m.Visitors.Restore(s.Visitors)
	m.Events.Restore(s.Events)
	m.Links.Restore(s.Links)
	if m.logger != nil {
		m.logger.State().Info("State restored from snapshot",
			"sites", len(s.Sites),
			"visitors", len(s.Visitors),
			"events", len(s.Events),
			"trackedLinks", len(s.Links),
			"savedAt", s.SavedAt)
	}
}
