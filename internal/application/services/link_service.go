package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/metrics"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
)

// ErrLinkNotFound is returned when a redirect resolution names an unknown
// token. This is the one user-facing failure in the engine: a human
// clicked the link and is waiting on the response.
var ErrLinkNotFound = errors.New("tracked link not found")

// LinkService manages tracked outreach links and their resolution.
type LinkService struct {
	state   *manager.Manager
	flusher *snapshot.Flusher
	logger  *logging.ChanneledLogger
}

// NewLinkService creates a link service.
func NewLinkService(state *manager.Manager, flusher *snapshot.Flusher, logger *logging.ChanneledLogger) *LinkService {
	return &LinkService{state: state, flusher: flusher, logger: logger}
}

// Create registers a tracked link for an outreach message.
func (s *LinkService) Create(siteID, originalURL, messageType string, lead *link.LeadInfo) (*link.TrackedLink, error) {
	if originalURL == "" {
		return nil, fmt.Errorf("originalUrl is required")
	}

	l := link.New(siteID, originalURL, messageType, lead)
	s.state.Links.Insert(l)
	s.flusher.MarkDirty()

	if s.logger != nil {
		s.logger.System().Info("Tracked link created", "linkId", l.LinkID, "url", originalURL, "messageType", messageType)
	}
	return l, nil
}

// List returns tracked links newest-first, optionally filtered by site.
func (s *LinkService) List(siteID string) []*link.TrackedLink {
	all := s.state.Links.All()
	if siteID == "" {
		return all
	}
	var out []*link.TrackedLink
	for _, l := range all {
		if l.SiteID == siteID {
			out = append(out, l)
		}
	}
	return out
}

// Resolve records a click on a tracked link and returns the redirect
// target with the link's token appended. An unknown token yields
// ErrLinkNotFound and mutates nothing.
func (s *LinkService) Resolve(linkID string) (string, error) {
	l, exists := s.state.Links.Get(linkID)
	if !exists {
		return "", ErrLinkNotFound
	}

	clicks := 0
	s.state.Links.Mutate(linkID, func(tl *link.TrackedLink) {
		tl.RecordClick(time.Now().UTC())
		clicks = tl.Clicks
	})
	metrics.LinkClicksTotal.Inc()
	s.flusher.MarkDirty()

	if s.logger != nil {
		s.logger.System().Debug("Tracked link resolved", "linkId", linkID, "clicks", clicks)
	}
	return l.RedirectTarget(), nil
}
