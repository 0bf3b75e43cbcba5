// Package stores provides the in-memory state store implementations.
package stores

import (
	"sort"
	"sync"

	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
)

// VisitorStore is the canonical identity store. Visitors are keyed by
// internal id with a fingerprint secondary index maintained atomically with
// insertion, so identity resolution is a map lookup rather than a scan.
type VisitorStore struct {
	visitors      map[string]*visitor.Visitor // visitorId -> visitor
	byFingerprint map[string]string           // fingerprintHash -> visitorId
	order         []string                    // insertion order, for stable listings
	mu            sync.RWMutex
	logger        *logging.ChanneledLogger
}

// NewVisitorStore creates an empty visitor store.
func NewVisitorStore(logger *logging.ChanneledLogger) *VisitorStore {
	if logger != nil {
		logger.State().Info("Initializing visitor store")
	}
	return &VisitorStore{
		visitors:      make(map[string]*visitor.Visitor),
		byFingerprint: make(map[string]string),
		logger:        logger,
	}
}

// Get returns a copy of the visitor with the given id. Reads hand out
// clones so callers never hold a record the write lock no longer covers.
func (vs *VisitorStore) Get(visitorID string) (*visitor.Visitor, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	v, exists := vs.visitors[visitorID]
	if !exists {
		return nil, false
	}
	return v.Clone(), true
}

// GetByFingerprint resolves a visitor through the fingerprint index,
// returning a copy.
func (vs *VisitorStore) GetByFingerprint(fingerprintHash string) (*visitor.Visitor, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	id, exists := vs.byFingerprint[fingerprintHash]
	if !exists {
		return nil, false
	}
	v, exists := vs.visitors[id]
	if !exists {
		return nil, false
	}
	return v.Clone(), true
}

// Insert adds a new visitor and its fingerprint index entry atomically.
// When the fingerprint is already bound to another visitor the existing
// binding wins and Insert reports false; the identity invariant is one
// visitor per fingerprint.
func (vs *VisitorStore) Insert(v *visitor.Visitor) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, taken := vs.byFingerprint[v.FingerprintHash]; taken {
		return false
	}
	vs.visitors[v.VisitorID] = v
	vs.byFingerprint[v.FingerprintHash] = v.VisitorID
	vs.order = append(vs.order, v.VisitorID)

	if vs.logger != nil {
		vs.logger.State().Debug("Visitor inserted", "visitorId", v.VisitorID, "fingerprint", v.FingerprintHash)
	}
	return true
}

// Mutate applies fn to the visitor under the store's write lock. All
// visitor mutation after insertion goes through here so read-side endpoints
// never observe a half-updated record.
func (vs *VisitorStore) Mutate(visitorID string, fn func(*visitor.Visitor)) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, exists := vs.visitors[visitorID]
	if !exists {
		return false
	}
	fn(v)
	return true
}

// All returns copies of the visitors in insertion order.
func (vs *VisitorStore) All() []*visitor.Visitor {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	out := make([]*visitor.Visitor, 0, len(vs.order))
	for _, id := range vs.order {
		if v, exists := vs.visitors[id]; exists {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Count returns the number of visitors in the store.
func (vs *VisitorStore) Count() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.visitors)
}

// Restore replaces store contents from a persisted snapshot, rebuilding the
// fingerprint index. Insertion order follows FirstSeen so listings stay
// stable across restarts.
func (vs *VisitorStore) Restore(visitors []*visitor.Visitor) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.visitors = make(map[string]*visitor.Visitor, len(visitors))
	vs.byFingerprint = make(map[string]string, len(visitors))
	vs.order = make([]string, 0, len(visitors))

	sorted := make([]*visitor.Visitor, len(visitors))
	copy(sorted, visitors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FirstSeen.Before(sorted[j].FirstSeen)
	})

	for _, v := range sorted {
		if v == nil || v.VisitorID == "" {
			continue
		}
		if _, taken := vs.byFingerprint[v.FingerprintHash]; taken {
			continue
		}
		vs.visitors[v.VisitorID] = v
		vs.byFingerprint[v.FingerprintHash] = v.VisitorID
		vs.order = append(vs.order, v.VisitorID)
	}

	if vs.logger != nil {
		vs.logger.State().Info("Visitor store restored", "count", len(vs.visitors))
	}
}
