// Package snapshot implements the load/save boundary for the four
// persisted state collections. Each collection round-trips as a JSON
// document; load is best-effort and never fails startup.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/database"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
)

// Collection names used as snapshot row keys.
const (
	collectionSites    = "sites"
	collectionVisitors = "visitors"
	collectionEvents   = "events"
	collectionLinks    = "tracked_links"
)

// Repository persists state snapshots, one row per collection.
type Repository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewRepository creates the snapshot repository and ensures its schema.
func NewRepository(db *database.DB, logger *logging.ChanneledLogger) (*Repository, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS snapshots (
			name TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &Repository{db: db, logger: logger}, nil
}

// Save upserts all four collections. A failure is reported to the caller
// but the caller is expected to swallow it; in-memory state stays correct
// and a later flush retries.
func (r *Repository) Save(s *manager.Snapshot) error {
	start := time.Now()

	collections := []struct {
		name string
		data any
	}{
		{collectionSites, s.Sites},
		{collectionVisitors, s.Visitors},
		{collectionEvents, s.Events},
		{collectionLinks, s.Links},
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO snapshots (name, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`

	for _, c := range collections {
		payload, err := json.Marshal(c.data)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(upsert, c.name, string(payload), s.SavedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if r.logger != nil {
		r.logger.Database().Info("State snapshot persisted",
			"sites", len(s.Sites),
			"visitors", len(s.Visitors),
			"events", len(s.Events),
			"trackedLinks", len(s.Links),
			"duration", time.Since(start))
	}
	return nil
}

// Load reads the persisted collections. Missing rows or corrupt payloads
// yield empty collections, never an error: a fresh install and a damaged
// snapshot both start clean.
func (r *Repository) Load() *manager.Snapshot {
	s := &manager.Snapshot{}

	loadCollection(r, collectionSites, &s.Sites)
	loadCollection(r, collectionVisitors, &s.Visitors)
	loadCollection(r, collectionEvents, &s.Events)
	loadCollection(r, collectionLinks, &s.Links)

	if r.logger != nil {
		r.logger.Database().Info("State snapshot loaded",
			"sites", len(s.Sites),
			"visitors", len(s.Visitors),
			"events", len(s.Events),
			"trackedLinks", len(s.Links))
	}
	return s
}

func loadCollection[T any](r *Repository, name string, dest *[]T) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		return
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		if r.logger != nil {
			r.logger.Database().Warn("Discarding corrupt snapshot collection", "collection", name, "error", err.Error())
		}
		*dest = nil
	}
}
