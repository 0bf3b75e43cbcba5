package stores

import (
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRegistryReadsReturnCopies(t *testing.T) {
	registry := NewLinkRegistry(nil)
	l := link.New("site-1", "https://example.com", "email", &link.LeadInfo{Name: "Ada"})
	registry.Insert(l)

	got, ok := registry.Get(l.LinkID)
	require.True(t, ok)
	assert.NotSame(t, l, got)

	// Writes to a fetched record never reach the registry.
	got.Clicks = 42
	got.Lead.Name = "Nobody"

	fresh, _ := registry.Get(l.LinkID)
	assert.Equal(t, 0, fresh.Clicks)
	assert.Equal(t, "Ada", fresh.Lead.Name)

	// Click accounting never reaches a previously fetched record.
	registry.Mutate(l.LinkID, func(tl *link.TrackedLink) {
		tl.RecordClick(time.Now().UTC())
	})
	assert.Equal(t, 42, got.Clicks)

	all := registry.All()
	require.Len(t, all, 1)
	assert.NotSame(t, l, all[0])
	assert.Equal(t, 1, all[0].Clicks)
}
