package stores

import (
	"sort"
	"sync"

	"github.com/beaconview/beaconview-go/internal/domain/site"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
)

// SiteStore holds registered tracked properties.
type SiteStore struct {
	sites  map[string]*site.Site // siteId -> site
	mu     sync.RWMutex
	logger *logging.ChanneledLogger
}

// NewSiteStore creates an empty site store.
func NewSiteStore(logger *logging.ChanneledLogger) *SiteStore {
	if logger != nil {
		logger.State().Info("Initializing site store")
	}
	return &SiteStore{
		sites:  make(map[string]*site.Site),
		logger: logger,
	}
}

// Get returns a copy of the site with the given id.
func (ss *SiteStore) Get(siteID string) (*site.Site, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, exists := ss.sites[siteID]
	if !exists {
		return nil, false
	}
	return s.Clone(), true
}

// Insert registers a site.
func (ss *SiteStore) Insert(s *site.Site) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sites[s.SiteID] = s
	if ss.logger != nil {
		ss.logger.State().Debug("Site registered", "siteId", s.SiteID, "domain", s.Domain)
	}
}

// Delete removes a site registration. Historical events referencing the
// site are untouched and become orphaned.
func (ss *SiteStore) Delete(siteID string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, exists := ss.sites[siteID]; !exists {
		return false
	}
	delete(ss.sites, siteID)
	if ss.logger != nil {
		ss.logger.State().Info("Site deleted", "siteId", siteID)
	}
	return true
}

// All returns copies of the sites, oldest-first.
func (ss *SiteStore) All() []*site.Site {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	out := make([]*site.Site, 0, len(ss.sites))
	for _, s := range ss.sites {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of registered sites.
func (ss *SiteStore) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sites)
}

// Restore replaces store contents from a persisted snapshot.
func (ss *SiteStore) Restore(sites []*site.Site) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sites = make(map[string]*site.Site, len(sites))
	for _, s := range sites {
		if s != nil && s.SiteID != "" {
			ss.sites[s.SiteID] = s
		}
	}
	if ss.logger != nil {
		ss.logger.State().Info("Site store restored", "count", len(ss.sites))
	}
}
