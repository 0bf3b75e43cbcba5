// Package visitor defines the visitor identity entities.
package visitor

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Visitor represents one inferred physical visitor across time, keyed by a
// weak client-side fingerprint. Distinct people sharing a browser
// configuration may collide on the same fingerprint; that is an accepted
// limitation of the scheme, not a bug.
type Visitor struct {
	VisitorID       string    `json:"visitorId"`
	FingerprintHash string    `json:"fingerprintHash"`
	Identified      bool      `json:"identified"`
	Identity        *Identity `json:"identity,omitempty"`
	FirstSeen       time.Time `json:"firstSeen"`
	LastSeen        time.Time `json:"lastSeen"`
	TotalSessions   int       `json:"totalSessions"`
	TotalPageviews  int       `json:"totalPageviews"`
	EngagementScore int       `json:"engagementScore"`
	Geo             *Geo      `json:"geo,omitempty"`
	Device          *Device   `json:"device,omitempty"`
	SiteIDs         []string  `json:"siteIds"`
	Sessions        []string  `json:"sessions"`
}

// Identity is the known-lead payload bound to a visitor on a tracked-link
// click. Set once; never overwritten or reverted.
type Identity struct {
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Company      string    `json:"company,omitempty"`
	Title        string    `json:"title,omitempty"`
	LinkedinURL  string    `json:"linkedinUrl,omitempty"`
	IdentifiedAt time.Time `json:"identifiedAt"`
	Source       string    `json:"source,omitempty"`
}

// Geo is resolved once at first sighting and immutable thereafter, even if
// the visitor's IP changes.
type Geo struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// Device is detected once from the first sighting's User-Agent and never
// re-detected.
type Device struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Type    string `json:"type"` // "desktop", "mobile", or "tablet"
}

// New creates a visitor for a first sighting. The first event of a new
// visitor always opens its first session.
func New(fingerprintHash, siteID, sessionID string, seen time.Time, geo *Geo, device *Device) *Visitor {
	v := &Visitor{
		VisitorID:       ulid.Make().String(),
		FingerprintHash: fingerprintHash,
		FirstSeen:       seen,
		LastSeen:        seen,
		TotalSessions:   1,
		Geo:             geo,
		Device:          device,
		SiteIDs:         []string{siteID},
	}
	if sessionID != "" {
		v.Sessions = []string{sessionID}
	}
	return v
}

// Touch advances LastSeen. It only ever moves forward, so out-of-order
// beacon timestamps cannot rewind a visitor's recency.
func (v *Visitor) Touch(seen time.Time) {
	if seen.After(v.LastSeen) {
		v.LastSeen = seen
	}
}

// RecordSession appends the session id if it is new to this visitor and
// bumps the session counter. Returns true when a new session was opened.
func (v *Visitor) RecordSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	for _, s := range v.Sessions {
		if s == sessionID {
			return false
		}
	}
	v.Sessions = append(v.Sessions, sessionID)
	v.TotalSessions++
	return true
}

// RecordSite ensures the site id is present in the visitor's site set.
func (v *Visitor) RecordSite(siteID string) {
	for _, s := range v.SiteIDs {
		if s == siteID {
			return
		}
	}
	v.SiteIDs = append(v.SiteIDs, siteID)
}

// Identify binds the visitor to a known lead identity. Identification is
// monotonic: once identified, repeat calls are no-ops and the original
// identity payload is preserved.
func (v *Visitor) Identify(identity *Identity) bool {
	if v.Identified {
		return false
	}
	v.Identified = true
	v.Identity = identity
	return true
}

// Clone returns a deep copy of the visitor. Store read accessors hand out
// clones so callers can read and serialize them without holding the store
// lock.
func (v *Visitor) Clone() *Visitor {
	cp := *v
	if v.Identity != nil {
		identity := *v.Identity
		cp.Identity = &identity
	}
	if v.Geo != nil {
		g := *v.Geo
		cp.Geo = &g
	}
	if v.Device != nil {
		d := *v.Device
		cp.Device = &d
	}
	cp.SiteIDs = append([]string(nil), v.SiteIDs...)
	cp.Sessions = append([]string(nil), v.Sessions...)
	return &cp
}

// HasSite reports whether the visitor has been seen on the given site.
func (v *Visitor) HasSite(siteID string) bool {
	for _, s := range v.SiteIDs {
		if s == siteID {
			return true
		}
	}
	return false
}

// Summary is the redacted visitor projection broadcast alongside live
// events. It deliberately omits the raw fingerprint and lead contact
// details beyond the display name.
type Summary struct {
	VisitorID       string `json:"visitorId"`
	Identified      bool   `json:"identified"`
	Name            string `json:"name,omitempty"`
	Company         string `json:"company,omitempty"`
	EngagementScore int    `json:"engagementScore"`
	Country         string `json:"country,omitempty"`
	City            string `json:"city,omitempty"`
	DeviceType      string `json:"deviceType,omitempty"`
	TotalPageviews  int    `json:"totalPageviews"`
}

// Summarize builds the redacted broadcast projection for a visitor.
func (v *Visitor) Summarize() *Summary {
	s := &Summary{
		VisitorID:       v.VisitorID,
		Identified:      v.Identified,
		EngagementScore: v.EngagementScore,
		TotalPageviews:  v.TotalPageviews,
	}
	if v.Identity != nil {
		s.Name = v.Identity.Name
		s.Company = v.Identity.Company
	}
	if v.Geo != nil {
		s.Country = v.Geo.Country
		s.City = v.Geo.City
	}
	if v.Device != nil {
		s.DeviceType = v.Device.Type
	}
	return s
}
