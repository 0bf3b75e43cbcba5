// Package event defines the immutable analytics event entity.
package event

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types accepted from the embedded collector.
const (
	TypePageview = "pageview"
	TypeExit     = "exit"
	TypeClick    = "click"
)

// Event is an immutable fact recorded by the ingestion pipeline. Events are
// created once, never mutated, and only ever leave the log through FIFO
// eviction when the log exceeds capacity.
type Event struct {
	EventID   string         `json:"eventId"`
	SiteID    string         `json:"siteId"`
	VisitorID string         `json:"visitorId"`
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh ULID.
func New(siteID, visitorID, sessionID, eventType string, timestamp time.Time, data map[string]any) *Event {
	return &Event{
		EventID:   ulid.Make().String(),
		SiteID:    siteID,
		VisitorID: visitorID,
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: timestamp,
		Data:      data,
	}
}

// ValidType reports whether t is one of the accepted event types.
func ValidType(t string) bool {
	switch t {
	case TypePageview, TypeExit, TypeClick:
		return true
	}
	return false
}

// Page returns the page path carried in the event payload, if any.
func (e *Event) Page() string {
	if e.Data == nil {
		return ""
	}
	if page, ok := e.Data["page"].(string); ok {
		return page
	}
	return ""
}

// Referrer returns the referrer URL carried in the event payload, if any.
func (e *Event) Referrer() string {
	if e.Data == nil {
		return ""
	}
	if ref, ok := e.Data["referrer"].(string); ok {
		return ref
	}
	return ""
}

// ScrollDepth returns the exit scroll depth percentage and whether the
// payload carried one. JSON numbers decode as float64.
func (e *Event) ScrollDepth() (float64, bool) {
	if e.Data == nil {
		return 0, false
	}
	switch v := e.Data["scrollDepth"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// TrackingToken returns the tracked-link token carried in the event
// payload, if any.
func (e *Event) TrackingToken() string {
	if e.Data == nil {
		return ""
	}
	if token, ok := e.Data["trackingToken"].(string); ok {
		return token
	}
	return ""
}
