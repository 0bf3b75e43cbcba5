package services

import (
	"net/url"
	"sort"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// Time windows accepted by the aggregation queries.
const (
	WindowToday = "today"
	Window7d    = "7d"
	Window30d   = "30d"
	WindowAll   = "all"
)

// AnalyticsService provides the stateless read-side computations over the
// event log and identity store.
type AnalyticsService struct {
	state  *manager.Manager
	logger *logging.ChanneledLogger
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(state *manager.Manager, logger *logging.ChanneledLogger) *AnalyticsService {
	return &AnalyticsService{state: state, logger: logger}
}

// CountEntry is a labeled count in a top-N breakdown.
type CountEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DailyCount is the unique-visitor count for one calendar day.
type DailyCount struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Visitors int    `json:"visitors"`
}

// Dashboard is the aggregate payload for a site and time window.
type Dashboard struct {
	Window           string             `json:"window"`
	UniqueVisitors   int                `json:"uniqueVisitors"`
	Pageviews        int                `json:"pageviews"`
	IdentifiedCount  int                `json:"identifiedCount"`
	ActiveCount      int                `json:"activeCount"`
	TopPages         []CountEntry       `json:"topPages"`
	TopReferrers     []CountEntry       `json:"topReferrers"`
	DailyVisitors    []DailyCount       `json:"dailyVisitors"`
	RecentIdentified []*visitor.Visitor `json:"recentIdentified"`
	RecentActive     []*visitor.Visitor `json:"recentActive"`
}

// windowStart returns the inclusive lower bound for a time window, or a
// zero time for "all".
func windowStart(window string, now time.Time) time.Time {
	switch window {
	case WindowToday:
		year, month, day := now.Local().Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	case Window7d:
		return now.Add(-7 * 24 * time.Hour)
	case Window30d:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// ComputeDashboard builds the dashboard aggregate for an optional site
// filter and time window.
func (s *AnalyticsService) ComputeDashboard(siteID, window string) *Dashboard {
	start := time.Now()
	now := time.Now()
	since := windowStart(window, now)

	events := s.filterEvents(siteID, since)

	uniqueVisitors := make(map[string]bool)
	pageviews := 0
	for _, e := range events {
		uniqueVisitors[e.VisitorID] = true
		if e.Type == event.TypePageview {
			pageviews++
		}
	}

	identified := 0
	for _, v := range s.state.Visitors.All() {
		if siteID != "" && !v.HasSite(siteID) {
			continue
		}
		if v.Identified {
			identified++
		}
	}

	dashboard := &Dashboard{
		Window:           window,
		UniqueVisitors:   len(uniqueVisitors),
		Pageviews:        pageviews,
		IdentifiedCount:  identified,
		ActiveCount:      s.state.LiveSessions.ActiveCount(siteID, now.UTC()),
		TopPages:         s.topPages(events, config.TopPagesMax),
		TopReferrers:     s.topReferrers(events, config.TopReferrersMax),
		DailyVisitors:    s.dailyVisitors(siteID, now),
		RecentIdentified: s.recentIdentified(siteID, config.RecentVisitorsMax),
		RecentActive:     s.recentActive(siteID, config.RecentVisitorsMax),
	}

	if s.logger != nil {
		s.logger.Analytics().Debug("Dashboard computed",
			"siteId", siteID,
			"window", window,
			"events", len(events),
			"duration", time.Since(start))
	}
	return dashboard
}

// filterEvents returns retained events matching the site and window.
func (s *AnalyticsService) filterEvents(siteID string, since time.Time) []*event.Event {
	var out []*event.Event
	for _, e := range s.state.Events.All() {
		if siteID != "" && e.SiteID != siteID {
			continue
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// topPages ranks pages by pageview count. Ties break in first-seen
// iteration order; the tie-break is stable but unspecified.
func (s *AnalyticsService) topPages(events []*event.Event, limit int) []CountEntry {
	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		if e.Type != event.TypePageview {
			continue
		}
		page := e.Page()
		if page == "" {
			continue
		}
		if _, seen := counts[page]; !seen {
			order = append(order, page)
		}
		counts[page]++
	}
	return rankCounts(counts, order, limit)
}

// topReferrers ranks referrer hostnames parsed from pageview events.
// Malformed or missing referrers are excluded.
func (s *AnalyticsService) topReferrers(events []*event.Event, limit int) []CountEntry {
	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		if e.Type != event.TypePageview {
			continue
		}
		ref := e.Referrer()
		if ref == "" {
			continue
		}
		parsed, err := url.Parse(ref)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		host := parsed.Hostname()
		if _, seen := counts[host]; !seen {
			order = append(order, host)
		}
		counts[host]++
	}
	return rankCounts(counts, order, limit)
}

func rankCounts(counts map[string]int, order []string, limit int) []CountEntry {
	entries := make([]CountEntry, 0, len(order))
	for _, label := range order {
		entries = append(entries, CountEntry{Label: label, Count: counts[label]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// dailyVisitors computes unique-visitor counts for the last 30 calendar
// days, keyed by the event's calendar date in its recorded timestamp.
func (s *AnalyticsService) dailyVisitors(siteID string, now time.Time) []DailyCount {
	byDay := make(map[string]map[string]bool)
	for _, e := range s.state.Events.All() {
		if siteID != "" && e.SiteID != siteID {
			continue
		}
		day := e.Timestamp.Local().Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = make(map[string]bool)
		}
		byDay[day][e.VisitorID] = true
	}

	out := make([]DailyCount, 0, 30)
	for i := 29; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Local().Format("2006-01-02")
		out = append(out, DailyCount{Date: day, Visitors: len(byDay[day])})
	}
	return out
}

// recentIdentified returns the most recently identified visitors.
func (s *AnalyticsService) recentIdentified(siteID string, limit int) []*visitor.Visitor {
	var identified []*visitor.Visitor
	for _, v := range s.state.Visitors.All() {
		if !v.Identified || v.Identity == nil {
			continue
		}
		if siteID != "" && !v.HasSite(siteID) {
			continue
		}
		identified = append(identified, v)
	}
	sort.SliceStable(identified, func(i, j int) bool {
		return identified[i].Identity.IdentifiedAt.After(identified[j].Identity.IdentifiedAt)
	})
	if len(identified) > limit {
		identified = identified[:limit]
	}
	return identified
}

// ActiveSession is one live session joined with its visitor's redacted
// summary.
type ActiveSession struct {
	VisitorID    string           `json:"visitorId"`
	SiteID       string           `json:"siteId"`
	CurrentPage  string           `json:"currentPage"`
	LastActivity time.Time        `json:"lastActivity"`
	Visitor      *visitor.Summary `json:"visitor,omitempty"`
}

// ListActiveSessions returns the currently active sessions, newest activity
// first, optionally filtered by site. Expired entries are evicted by the
// read itself.
func (s *AnalyticsService) ListActiveSessions(siteID string) []*ActiveSession {
	now := time.Now().UTC()
	live := s.state.LiveSessions.ListActive(siteID, now)

	out := make([]*ActiveSession, 0, len(live))
	for _, session := range live {
		entry := &ActiveSession{
			VisitorID:    session.VisitorID,
			SiteID:       session.SiteID,
			CurrentPage:  session.CurrentPage,
			LastActivity: session.LastActivity,
		}
		if v, exists := s.state.Visitors.Get(session.VisitorID); exists {
			entry.Visitor = v.Summarize()
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// recentActive returns the most recently seen visitors.
func (s *AnalyticsService) recentActive(siteID string, limit int) []*visitor.Visitor {
	var active []*visitor.Visitor
	for _, v := range s.state.Visitors.All() {
		if siteID != "" && !v.HasSite(siteID) {
			continue
		}
		active = append(active, v)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].LastSeen.After(active[j].LastSeen)
	})
	if len(active) > limit {
		active = active[:limit]
	}
	return active
}
