package stores

import (
	"sort"
	"sync"

	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
)

// LinkRegistry maps opaque link tokens to lead identity payloads. Links are
// created by the message-generation flow and mutated only by click
// accounting from the resolver and ingestion pipeline.
type LinkRegistry struct {
	links  map[string]*link.TrackedLink // linkId -> link
	mu     sync.RWMutex
	logger *logging.ChanneledLogger
}

// NewLinkRegistry creates an empty tracked-link registry.
func NewLinkRegistry(logger *logging.ChanneledLogger) *LinkRegistry {
	if logger != nil {
		logger.State().Info("Initializing tracked-link registry")
	}
	return &LinkRegistry{
		links:  make(map[string]*link.TrackedLink),
		logger: logger,
	}
}

// Get returns a copy of the link for a token, so click accounting under
// the write lock never races the caller's read.
func (lr *LinkRegistry) Get(linkID string) (*link.TrackedLink, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	l, exists := lr.links[linkID]
	if !exists {
		return nil, false
	}
	return l.Clone(), true
}

// Insert registers a tracked link.
func (lr *LinkRegistry) Insert(l *link.TrackedLink) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.links[l.LinkID] = l
	if lr.logger != nil {
		lr.logger.State().Debug("Tracked link registered", "linkId", l.LinkID, "siteId", l.SiteID)
	}
}

// Mutate applies fn to the link under the write lock. Click accounting goes
// through here.
func (lr *LinkRegistry) Mutate(linkID string, fn func(*link.TrackedLink)) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	l, exists := lr.links[linkID]
	if !exists {
		return false
	}
	fn(l)
	return true
}

// All returns copies of the tracked links, newest-first.
func (lr *LinkRegistry) All() []*link.TrackedLink {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	out := make([]*link.TrackedLink, 0, len(lr.links))
	for _, l := range lr.links {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of registered links.
func (lr *LinkRegistry) Count() int {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return len(lr.links)
}

// Restore replaces registry contents from a persisted snapshot.
func (lr *LinkRegistry) Restore(links []*link.TrackedLink) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.links = make(map[string]*link.TrackedLink, len(links))
	for _, l := range links {
		if l != nil && l.LinkID != "" {
			lr.links[l.LinkID] = l
		}
	}
	if lr.logger != nil {
		lr.logger.State().Info("Tracked-link registry restored", "count", len(lr.links))
	}
}
