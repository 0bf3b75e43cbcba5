// Package services provides application-level orchestration services.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/domain/services"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/email"
	"github.com/beaconview/beaconview-go/internal/infrastructure/geo"
	"github.com/beaconview/beaconview-go/internal/infrastructure/messaging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/metrics"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/internal/infrastructure/useragent"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// CollectRequest is the beacon payload sent by the embedded collector.
type CollectRequest struct {
	SiteID      string         `json:"siteId"`
	Fingerprint string         `json:"fingerprint"`
	SessionID   string         `json:"sessionId"`
	Type        string         `json:"type"`
	Timestamp   int64          `json:"timestamp"` // epoch milliseconds; zero means "now"
	Data        map[string]any `json:"data"`
}

// IngestionService is the single entry point for incoming events. Per
// event it resolves or creates a visitor, updates session and link state,
// appends to the event log, recomputes engagement, and fans the result
// out. The caller has already been acknowledged before Ingest runs, so
// every failure inside the pipeline is swallowed: dropped analytics are
// acceptable, blocking or erroring the sender is not.
type IngestionService struct {
	state       *manager.Manager
	scorer      *services.EngagementScorer
	geoResolver *geo.Resolver
	broadcaster *messaging.EventBroadcaster
	flusher     *snapshot.Flusher
	emailSvc    email.Service // nil when alerts are not configured
	logger      *logging.ChanneledLogger

	// mu serializes pipelines. Two concurrent events for the same
	// fingerprint would otherwise race the visitor counters.
	mu sync.Mutex
}

// NewIngestionService creates the ingestion pipeline.
func NewIngestionService(
	state *manager.Manager,
	geoResolver *geo.Resolver,
	broadcaster *messaging.EventBroadcaster,
	flusher *snapshot.Flusher,
	emailSvc email.Service,
	logger *logging.ChanneledLogger,
) *IngestionService {
	return &IngestionService{
		state:       state,
		scorer:      services.NewEngagementScorer(),
		geoResolver: geoResolver,
		broadcaster: broadcaster,
		flusher:     flusher,
		emailSvc:    emailSvc,
		logger:      logger,
	}
}

// Ingest processes one beacon. Malformed beacons are silently dropped;
// the sender is one-way and cannot act on errors.
func (s *IngestionService) Ingest(req CollectRequest, clientIP, userAgent string) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Ingest().Error("Panic recovered in ingestion pipeline", "error", r)
		}
	}()

	if req.SiteID == "" || req.Fingerprint == "" || req.Type == "" || !event.ValidType(req.Type) {
		metrics.EventsDroppedTotal.Inc()
		return
	}

	timestamp := time.UnixMilli(req.Timestamp).UTC()
	if req.Timestamp == 0 {
		timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.resolveVisitor(req, timestamp, clientIP, userAgent)

	if req.Type == event.TypePageview {
		s.state.Visitors.Mutate(v.VisitorID, func(v *visitor.Visitor) {
			v.TotalPageviews++
		})
	}

	s.correlateTrackedLink(v, req, timestamp)

	// Store reads hand out copies, so refresh the local visitor to pick
	// up this pipeline's mutations before scoring and broadcasting.
	if current, found := s.state.Visitors.Get(v.VisitorID); found {
		v = current
	}

	// Engagement is derived state: recompute from the visitor and its
	// retained events on every ingestion.
	score := s.scorer.Score(v, s.state.Events.ForVisitor(v.VisitorID), time.Now().UTC())
	s.state.Visitors.Mutate(v.VisitorID, func(v *visitor.Visitor) {
		v.EngagementScore = score
	})
	v.EngagementScore = score

	e := event.New(req.SiteID, v.VisitorID, req.SessionID, req.Type, timestamp, req.Data)
	if evicted := s.state.Events.Append(e); evicted > 0 {
		metrics.EventLogEvictionsTotal.Add(float64(evicted))
	}
	metrics.EventsIngestedTotal.WithLabelValues(req.Type).Inc()

	page := e.Page()
	s.state.LiveSessions.Update(v.VisitorID, req.SiteID, page, time.Now().UTC())

	s.broadcaster.Publish(e, v.Summarize())

	s.flusher.MarkDirty()

	if s.logger != nil {
		s.logger.Ingest().Debug("Event ingested",
			"eventId", e.EventID,
			"siteId", req.SiteID,
			"visitorId", v.VisitorID,
			"type", req.Type)
	}
}

// resolveVisitor finds the visitor for a fingerprint or synthesizes a new
// one. Geo and device are resolved exactly once, at first sighting.
func (s *IngestionService) resolveVisitor(req CollectRequest, timestamp time.Time, clientIP, userAgent string) *visitor.Visitor {
	if existing, found := s.state.Visitors.GetByFingerprint(req.Fingerprint); found {
		s.state.Visitors.Mutate(existing.VisitorID, func(v *visitor.Visitor) {
			v.Touch(timestamp)
			v.RecordSession(req.SessionID)
			v.RecordSite(req.SiteID)
		})
		return existing
	}

	// The geo lookup is the pipeline's only suspension point; it is
	// bounded by a timeout and always yields a usable value.
	location := s.geoResolver.Resolve(context.Background(), clientIP)
	device := useragent.Detect(userAgent)

	v := visitor.New(req.Fingerprint, req.SiteID, req.SessionID, timestamp, location, device)
	if !s.state.Visitors.Insert(v) {
		// Lost a race on the fingerprint binding; defer to the winner.
		if winner, found := s.state.Visitors.GetByFingerprint(req.Fingerprint); found {
			return winner
		}
	}
	metrics.VisitorsCreatedTotal.Inc()

	if s.logger != nil {
		s.logger.Identity().Info("New visitor identified",
			"visitorId", v.VisitorID,
			"siteId", req.SiteID,
			"country", location.Country)
	}
	return v
}

// correlateTrackedLink binds the visitor to a known lead when the payload
// carries a tracking token bound to lead info. Identification is
// idempotent and the link's click accounting is updated on every signal.
func (s *IngestionService) correlateTrackedLink(v *visitor.Visitor, req CollectRequest, timestamp time.Time) {
	token := ""
	if req.Data != nil {
		if t, ok := req.Data["trackingToken"].(string); ok {
			token = t
		}
	}
	if token == "" {
		return
	}

	l, found := s.state.Links.Get(token)
	if !found {
		return
	}

	if l.Lead != nil {
		identity := &visitor.Identity{
			Name:         l.Lead.Name,
			Email:        l.Lead.Email,
			Company:      l.Lead.Company,
			Title:        l.Lead.Title,
			LinkedinURL:  l.Lead.LinkedinURL,
			IdentifiedAt: time.Now().UTC(),
			Source:       l.MessageType,
		}
		newlyIdentified := false
		s.state.Visitors.Mutate(v.VisitorID, func(v *visitor.Visitor) {
			newlyIdentified = v.Identify(identity)
		})
		if newlyIdentified {
			metrics.VisitorsIdentifiedTotal.Inc()
			if s.logger != nil {
				s.logger.Identity().Info("Visitor bound to lead",
					"visitorId", v.VisitorID,
					"lead", l.Lead.Name,
					"source", l.MessageType)
			}
			// Re-read so the alert carries the bound identity and the
			// alert goroutine owns a private copy.
			if identified, found := s.state.Visitors.Get(v.VisitorID); found {
				s.sendLeadAlert(identified)
			}
		}
	}

	s.state.Links.Mutate(token, func(tl *link.TrackedLink) {
		tl.RecordClick(timestamp)
	})
}

// sendLeadAlert fires the identification email without blocking the
// pipeline. Alert failures are logged and swallowed.
func (s *IngestionService) sendLeadAlert(v *visitor.Visitor) {
	if s.emailSvc == nil || config.LeadAlertEmail == "" {
		return
	}
	go func() {
		if err := s.emailSvc.SendLeadIdentifiedAlert(config.LeadAlertEmail, v); err != nil && s.logger != nil {
			s.logger.Email().Warn("Lead alert delivery failed", "visitorId", v.VisitorID, "error", err.Error())
		}
	}()
}
