package link

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectTargetAppendsToken(t *testing.T) {
	l := New("site-1", "https://example.com/whitepaper", "email", nil)

	target := l.RedirectTarget()

	parsed, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "example.com", parsed.Hostname())
	assert.Equal(t, "/whitepaper", parsed.Path)
	assert.Equal(t, l.LinkID, parsed.Query().Get(TokenParam))
}

func TestRedirectTargetPreservesExistingQuery(t *testing.T) {
	l := New("site-1", "https://example.com/page?utm_source=email", "email", nil)

	parsed, err := url.Parse(l.RedirectTarget())
	require.NoError(t, err)
	assert.Equal(t, "email", parsed.Query().Get("utm_source"))
	assert.Equal(t, l.LinkID, parsed.Query().Get(TokenParam))
}

func TestRecordClick(t *testing.T) {
	l := New("site-1", "https://example.com", "linkedin", &LeadInfo{Name: "Ada"})
	require.Equal(t, 0, l.Clicks)
	require.Nil(t, l.LastClicked)

	first := time.Now().UTC()
	l.RecordClick(first)
	second := first.Add(time.Minute)
	l.RecordClick(second)

	assert.Equal(t, 2, l.Clicks)
	require.NotNil(t, l.LastClicked)
	assert.Equal(t, second, *l.LastClicked)
}
