package services

import (
	"fmt"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/site"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// SiteService manages tracked-property registrations.
type SiteService struct {
	state   *manager.Manager
	flusher *snapshot.Flusher
	logger  *logging.ChanneledLogger
}

// NewSiteService creates a site service.
func NewSiteService(state *manager.Manager, flusher *snapshot.Flusher, logger *logging.ChanneledLogger) *SiteService {
	return &SiteService{state: state, flusher: flusher, logger: logger}
}

// SiteOverview is a site plus its derived traffic counts.
type SiteOverview struct {
	*site.Site
	Visitors  int `json:"visitors"`
	Pageviews int `json:"pageviews"`
}

// CreatedSite is the registration response including the embed snippet.
type CreatedSite struct {
	*site.Site
	EmbedSnippet string `json:"embedSnippet"`
}

// Create registers a site and returns it with its embed snippet.
func (s *SiteService) Create(name, domain string) (*CreatedSite, error) {
	if name == "" {
		return nil, fmt.Errorf("site name is required")
	}

	registered := site.New(name, domain)
	s.state.Sites.Insert(registered)
	s.flusher.MarkDirty()

	if s.logger != nil {
		s.logger.System().Info("Site registered", "siteId", registered.SiteID, "name", name, "domain", domain)
	}
	return &CreatedSite{
		Site:         registered,
		EmbedSnippet: registered.EmbedSnippet(config.PublicBaseURL),
	}, nil
}

// Delete removes a site registration. Historical events that reference the
// site remain in the log, orphaned.
func (s *SiteService) Delete(siteID string) error {
	if !s.state.Sites.Delete(siteID) {
		return fmt.Errorf("site %s not found", siteID)
	}
	s.flusher.MarkDirty()
	return nil
}

// List returns all sites with per-site visitor and pageview counts derived
// from current state.
func (s *SiteService) List() []*SiteOverview {
	sites := s.state.Sites.All()
	out := make([]*SiteOverview, 0, len(sites))

	for _, registered := range sites {
		visitors := 0
		for _, v := range s.state.Visitors.All() {
			if v.HasSite(registered.SiteID) {
				visitors++
			}
		}
		pageviews := 0
		for _, e := range s.state.Events.All() {
			if e.SiteID == registered.SiteID && e.Type == event.TypePageview {
				pageviews++
			}
		}
		out = append(out, &SiteOverview{
			Site:      registered,
			Visitors:  visitors,
			Pageviews: pageviews,
		})
	}
	return out
}

// Get returns one site registration.
func (s *SiteService) Get(siteID string) (*site.Site, error) {
	registered, exists := s.state.Sites.Get(siteID)
	if !exists {
		return nil, fmt.Errorf("site %s not found", siteID)
	}
	return registered, nil
}
