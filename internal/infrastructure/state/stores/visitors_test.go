package stores

import (
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorStoreFingerprintIndex(t *testing.T) {
	store := NewVisitorStore(nil)
	v := visitor.New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)

	require.True(t, store.Insert(v))

	byID, ok := store.Get(v.VisitorID)
	require.True(t, ok)
	assert.Equal(t, v.VisitorID, byID.VisitorID)

	byFP, ok := store.GetByFingerprint("fp-1")
	require.True(t, ok)
	assert.Equal(t, v.VisitorID, byFP.VisitorID)

	_, ok = store.GetByFingerprint("fp-unknown")
	assert.False(t, ok)
}

func TestVisitorStoreReadsReturnCopies(t *testing.T) {
	store := NewVisitorStore(nil)
	v := visitor.New("fp-1", "site-1", "sess-1", time.Now().UTC(), &visitor.Geo{Country: "Canada"}, nil)
	require.True(t, store.Insert(v))

	got, ok := store.Get(v.VisitorID)
	require.True(t, ok)
	assert.NotSame(t, v, got)

	// Writes to a fetched record never reach the store.
	got.TotalPageviews = 99
	got.Geo.Country = "Elsewhere"
	got.Sessions = append(got.Sessions, "sess-2")

	fresh, _ := store.Get(v.VisitorID)
	assert.Equal(t, 0, fresh.TotalPageviews)
	assert.Equal(t, "Canada", fresh.Geo.Country)
	assert.Len(t, fresh.Sessions, 1)

	// Store mutations never reach a previously fetched record.
	store.Mutate(v.VisitorID, func(v *visitor.Visitor) {
		v.TotalSessions = 7
	})
	assert.Equal(t, 1, got.TotalSessions)

	all := store.All()
	require.Len(t, all, 1)
	assert.NotSame(t, v, all[0])
}

func TestVisitorStoreRejectsFingerprintConflict(t *testing.T) {
	store := NewVisitorStore(nil)
	first := visitor.New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)
	require.True(t, store.Insert(first))

	dupe := visitor.New("fp-1", "site-1", "sess-2", time.Now().UTC(), nil, nil)
	assert.False(t, store.Insert(dupe))

	// The original binding survives the conflict.
	got, ok := store.GetByFingerprint("fp-1")
	require.True(t, ok)
	assert.Equal(t, first.VisitorID, got.VisitorID)
	assert.Equal(t, 1, store.Count())
}

func TestVisitorStoreMutate(t *testing.T) {
	store := NewVisitorStore(nil)
	v := visitor.New("fp-1", "site-1", "sess-1", time.Now().UTC(), nil, nil)
	require.True(t, store.Insert(v))

	ok := store.Mutate(v.VisitorID, func(v *visitor.Visitor) {
		v.TotalPageviews = 7
	})
	require.True(t, ok)

	got, _ := store.Get(v.VisitorID)
	assert.Equal(t, 7, got.TotalPageviews)

	assert.False(t, store.Mutate("missing", func(v *visitor.Visitor) {}))
}

func TestVisitorStoreRestoreRebuildsIndex(t *testing.T) {
	store := NewVisitorStore(nil)
	now := time.Now().UTC()
	older := visitor.New("fp-old", "site-1", "sess-1", now.Add(-time.Hour), nil, nil)
	newer := visitor.New("fp-new", "site-1", "sess-2", now, nil, nil)

	store.Restore([]*visitor.Visitor{newer, older})

	assert.Equal(t, 2, store.Count())
	got, ok := store.GetByFingerprint("fp-old")
	require.True(t, ok)
	assert.Equal(t, older.VisitorID, got.VisitorID)

	// All() iterates first-seen order regardless of restore order.
	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, older.VisitorID, all[0].VisitorID)
}
