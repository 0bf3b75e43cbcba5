package visitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisitorOpensFirstSession(t *testing.T) {
	seen := time.Now().UTC()
	v := New("fp-1", "site-1", "sess-1", seen, &Geo{Country: "Canada"}, &Device{Type: "desktop"})

	require.NotEmpty(t, v.VisitorID)
	assert.Equal(t, "fp-1", v.FingerprintHash)
	assert.Equal(t, 1, v.TotalSessions)
	assert.Equal(t, 0, v.TotalPageviews)
	assert.Equal(t, seen, v.FirstSeen)
	assert.Equal(t, seen, v.LastSeen)
	assert.Equal(t, []string{"site-1"}, v.SiteIDs)
	assert.Equal(t, []string{"sess-1"}, v.Sessions)
	assert.False(t, v.Identified)
}

func TestTouchNeverRewinds(t *testing.T) {
	now := time.Now().UTC()
	v := New("fp-1", "site-1", "sess-1", now, nil, nil)

	v.Touch(now.Add(-time.Hour))
	assert.Equal(t, now, v.LastSeen, "stale timestamp must not rewind lastSeen")

	later := now.Add(time.Minute)
	v.Touch(later)
	assert.Equal(t, later, v.LastSeen)
}

func TestRecordSessionDeduplicates(t *testing.T) {
	v := New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)

	assert.False(t, v.RecordSession("sess-1"))
	assert.Equal(t, 1, v.TotalSessions)

	assert.True(t, v.RecordSession("sess-2"))
	assert.Equal(t, 2, v.TotalSessions)

	assert.False(t, v.RecordSession(""))
	assert.Equal(t, 2, v.TotalSessions)
}

func TestRecordSiteDeduplicates(t *testing.T) {
	v := New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)

	v.RecordSite("site-1")
	v.RecordSite("site-2")
	v.RecordSite("site-2")

	assert.Equal(t, []string{"site-1", "site-2"}, v.SiteIDs)
	assert.True(t, v.HasSite("site-2"))
	assert.False(t, v.HasSite("site-3"))
}

func TestIdentifyIsMonotonic(t *testing.T) {
	v := New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)

	first := &Identity{Name: "Ada Lovelace", Email: "ada@example.com"}
	assert.True(t, v.Identify(first))
	assert.True(t, v.Identified)

	// A second identification signal never overwrites the original.
	second := &Identity{Name: "Someone Else"}
	assert.False(t, v.Identify(second))
	assert.Equal(t, "Ada Lovelace", v.Identity.Name)
}

func TestSummarizeRedactsContactDetails(t *testing.T) {
	v := New("fp-secret", "site-1", "sess-1", time.Now().UTC(),
		&Geo{Country: "Canada", City: "Toronto"}, &Device{Type: "mobile"})
	v.Identify(&Identity{Name: "Ada Lovelace", Email: "ada@example.com", Company: "Analytical Engines"})
	v.EngagementScore = 72

	s := v.Summarize()

	assert.Equal(t, v.VisitorID, s.VisitorID)
	assert.True(t, s.Identified)
	assert.Equal(t, "Ada Lovelace", s.Name)
	assert.Equal(t, "Analytical Engines", s.Company)
	assert.Equal(t, "Canada", s.Country)
	assert.Equal(t, "mobile", s.DeviceType)
	assert.Equal(t, 72, s.EngagementScore)
}
