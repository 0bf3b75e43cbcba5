// Package site defines the registered tracked-property entity.
package site

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Site is a registered tracked property. Deleting a site does not delete
// historical events that reference it; they simply become orphaned.
type Site struct {
	SiteID    string    `json:"siteId"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates a site registration.
func New(name, domain string) *Site {
	return &Site{
		SiteID:    ulid.Make().String(),
		Name:      name,
		Domain:    domain,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy of the site registration.
func (s *Site) Clone() *Site {
	cp := *s
	return &cp
}

// EmbedSnippet returns the script tag a site owner pastes into their pages,
// referencing the collector script on the given host.
func (s *Site) EmbedSnippet(baseURL string) string {
	return fmt.Sprintf(`<script async src="%s/bv.js" data-site-id="%s"></script>`, baseURL, s.SiteID)
}
