package snapshot

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/domain/site"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/database"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(&database.DB{DB: db}, nil)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	v := visitor.New("fp-1", "site-1", "sess-1", now, &visitor.Geo{Country: "Canada"}, nil)
	v.Identify(&visitor.Identity{Name: "Ada", IdentifiedAt: now})

	snap := &manager.Snapshot{
		Sites:    []*site.Site{site.New("Example", "example.com")},
		Visitors: []*visitor.Visitor{v},
		Events: []*event.Event{
			event.New("site-1", v.VisitorID, "sess-1", event.TypePageview, now, map[string]any{"page": "/home"}),
		},
		Links:   []*link.TrackedLink{link.New("site-1", "https://example.com", "email", nil)},
		SavedAt: now,
	}
	require.NoError(t, repo.Save(snap))

	loaded := repo.Load()
	require.Len(t, loaded.Sites, 1)
	require.Len(t, loaded.Visitors, 1)
	require.Len(t, loaded.Events, 1)
	require.Len(t, loaded.Links, 1)

	assert.Equal(t, v.VisitorID, loaded.Visitors[0].VisitorID)
	assert.True(t, loaded.Visitors[0].Identified)
	assert.Equal(t, "Ada", loaded.Visitors[0].Identity.Name)
	assert.Equal(t, "/home", loaded.Events[0].Page())
}

func TestRepositorySaveIsUpsert(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	first := &manager.Snapshot{
		Sites:   []*site.Site{site.New("First", "a.example.com")},
		SavedAt: now,
	}
	require.NoError(t, repo.Save(first))

	second := &manager.Snapshot{
		Sites:   []*site.Site{site.New("Second", "b.example.com"), site.New("Third", "c.example.com")},
		SavedAt: now.Add(time.Minute),
	}
	require.NoError(t, repo.Save(second))

	loaded := repo.Load()
	require.Len(t, loaded.Sites, 2)
}

func TestRepositoryLoadEmptyDatabase(t *testing.T) {
	repo := newTestRepository(t)

	loaded := repo.Load()
	require.NotNil(t, loaded)
	assert.Empty(t, loaded.Sites)
	assert.Empty(t, loaded.Visitors)
	assert.Empty(t, loaded.Events)
	assert.Empty(t, loaded.Links)
}

func TestRepositoryDiscardsCorruptCollection(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	snap := &manager.Snapshot{
		Sites:   []*site.Site{site.New("Example", "example.com")},
		SavedAt: now,
	}
	require.NoError(t, repo.Save(snap))

	_, err := repo.db.Exec(`UPDATE snapshots SET payload = 'not json' WHERE name = 'sites'`)
	require.NoError(t, err)

	loaded := repo.Load()
	assert.Empty(t, loaded.Sites, "corrupt payloads start clean instead of failing")
}
