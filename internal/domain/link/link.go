// Package link defines the tracked outreach link entity.
package link

import (
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"
)

// TokenParam is the query parameter appended to a tracked link's
// destination URL so the embedded collector on the landing page can
// self-report the identification signal.
const TokenParam = "_bvt"

// LeadInfo is the known-identity payload a tracked link binds to the
// visitor who clicks it.
type LeadInfo struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
}

// TrackedLink correlates an outbound outreach message with inbound
// anonymous traffic. It is created when a message is generated and mutated
// only by click accounting; links are never deleted automatically.
type TrackedLink struct {
	LinkID      string     `json:"linkId"`
	SiteID      string     `json:"siteId,omitempty"`
	OriginalURL string     `json:"originalUrl"`
	Lead        *LeadInfo  `json:"leadInfo,omitempty"`
	MessageType string     `json:"messageType,omitempty"`
	Clicks      int        `json:"clicks"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// New creates a tracked link for an outreach message.
func New(siteID, originalURL, messageType string, lead *LeadInfo) *TrackedLink {
	return &TrackedLink{
		LinkID:      ulid.Make().String(),
		SiteID:      siteID,
		OriginalURL: originalURL,
		Lead:        lead,
		MessageType: messageType,
		CreatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy of the link. Registry read accessors hand out
// clones so click accounting never races a caller's read.
func (l *TrackedLink) Clone() *TrackedLink {
	cp := *l
	if l.Lead != nil {
		lead := *l.Lead
		cp.Lead = &lead
	}
	if l.LastClicked != nil {
		at := *l.LastClicked
		cp.LastClicked = &at
	}
	return &cp
}

// RecordClick increments the click counter and stamps the click time.
func (l *TrackedLink) RecordClick(at time.Time) {
	l.Clicks++
	l.LastClicked = &at
}

// RedirectTarget returns the destination URL with the link's own token
// appended as a query parameter.
func (l *TrackedLink) RedirectTarget() string {
	u, err := url.Parse(l.OriginalURL)
	if err != nil {
		// Fall back to naive appending on unparseable destinations.
		sep := "?"
		if containsQuery(l.OriginalURL) {
			sep = "&"
		}
		return l.OriginalURL + sep + TokenParam + "=" + l.LinkID
	}
	q := u.Query()
	q.Set(TokenParam, l.LinkID)
	u.RawQuery = q.Encode()
	return u.String()
}

func containsQuery(raw string) bool {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '?' {
			return true
		}
	}
	return false
}
