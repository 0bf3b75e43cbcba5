package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// VisitorService serves the read-side visitor queries for the dashboard.
type VisitorService struct {
	state  *manager.Manager
	logger *logging.ChanneledLogger
}

// NewVisitorService creates a visitor query service.
func NewVisitorService(state *manager.Manager, logger *logging.ChanneledLogger) *VisitorService {
	return &VisitorService{state: state, logger: logger}
}

// VisitorFilter narrows a visitor listing.
type VisitorFilter struct {
	SiteID     string
	Identified *bool // nil means "either"
	SortBy     string
	Offset     int
	Limit      int
}

// Sort keys accepted by ListVisitors. lastSeen is the default.
const (
	SortLastSeen        = "lastSeen"
	SortEngagementScore = "engagementScore"
	SortTotalPageviews  = "totalPageviews"
)

// VisitorPage is one page of a visitor listing plus the unpaginated total.
type VisitorPage struct {
	Visitors []*visitor.Visitor `json:"visitors"`
	Total    int                `json:"total"`
	Offset   int                `json:"offset"`
	Limit    int                `json:"limit"`
}

// ListVisitors returns a filtered, sorted, paginated listing.
func (s *VisitorService) ListVisitors(filter VisitorFilter) *VisitorPage {
	var matched []*visitor.Visitor
	for _, v := range s.state.Visitors.All() {
		if filter.SiteID != "" && !v.HasSite(filter.SiteID) {
			continue
		}
		if filter.Identified != nil && v.Identified != *filter.Identified {
			continue
		}
		matched = append(matched, v)
	}

	switch filter.SortBy {
	case SortEngagementScore:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].EngagementScore > matched[j].EngagementScore
		})
	case SortTotalPageviews:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].TotalPageviews > matched[j].TotalPageviews
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].LastSeen.After(matched[j].LastSeen)
		})
	}

	total := len(matched)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*visitor.Visitor, end-offset)
	copy(page, matched[offset:end])

	return &VisitorPage{
		Visitors: page,
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	}
}

// TimelineSession is one browsing session within a visitor timeline.
type TimelineSession struct {
	SessionID string         `json:"sessionId"`
	StartedAt time.Time      `json:"startedAt"`
	Events    []*event.Event `json:"events"`
}

// VisitorDetail is one visitor plus its capped, session-grouped timeline.
type VisitorDetail struct {
	Visitor  *visitor.Visitor   `json:"visitor"`
	Timeline []*TimelineSession `json:"timeline"`
}

// GetVisitor returns a visitor with its timeline: the visitor's retained
// events, newest first, capped, grouped into sessions with each session's
// start time equal to its earliest event's timestamp.
func (s *VisitorService) GetVisitor(visitorID string) (*VisitorDetail, error) {
	v, exists := s.state.Visitors.Get(visitorID)
	if !exists {
		return nil, fmt.Errorf("visitor %s not found", visitorID)
	}

	events := s.state.Events.ForVisitor(visitorID)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > config.TimelineEventsMax {
		events = events[:config.TimelineEventsMax]
	}

	var timeline []*TimelineSession
	bySession := make(map[string]*TimelineSession)
	for _, e := range events {
		session, seen := bySession[e.SessionID]
		if !seen {
			session = &TimelineSession{SessionID: e.SessionID, StartedAt: e.Timestamp}
			bySession[e.SessionID] = session
			timeline = append(timeline, session)
		}
		session.Events = append(session.Events, e)
		if e.Timestamp.Before(session.StartedAt) {
			session.StartedAt = e.Timestamp
		}
	}

	return &VisitorDetail{Visitor: v, Timeline: timeline}, nil
}
