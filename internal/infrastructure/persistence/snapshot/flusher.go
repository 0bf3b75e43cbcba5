package snapshot

import (
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/metrics"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
)

// Flusher coalesces bursts of mutations into one persistence write. The
// first MarkDirty after an idle period arms a delayed flush; further marks
// during that window are absorbed into the same pending flush. Data since
// the last successful flush is lost on abrupt termination; no write-ahead
// log protects it.
type Flusher struct {
	repo     *Repository
	state    *manager.Manager
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool

	logger *logging.ChanneledLogger
}

// NewFlusher creates a debounced flusher over the snapshot repository.
func NewFlusher(repo *Repository, state *manager.Manager, debounce time.Duration, logger *logging.ChanneledLogger) *Flusher {
	return &Flusher{
		repo:     repo,
		state:    state,
		debounce: debounce,
		logger:   logger,
	}
}

// MarkDirty schedules a flush. Repeated calls while a flush is pending are
// coalesced.
func (f *Flusher) MarkDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = true
	if f.timer != nil {
		return
	}
	f.timer = time.AfterFunc(f.debounce, f.flushScheduled)
}

func (f *Flusher) flushScheduled() {
	f.mu.Lock()
	f.timer = nil
	pending := f.pending
	f.pending = false
	f.mu.Unlock()

	if !pending {
		return
	}
	f.flush()
}

// Flush persists immediately, regardless of debounce state. Safe to call
// with no pending changes; used at shutdown.
func (f *Flusher) Flush() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.pending = false
	f.mu.Unlock()

	f.flush()
}

// flush writes the snapshot. Persistence failures are swallowed: state
// remains correct in memory and a later flush retries.
func (f *Flusher) flush() {
	if err := f.repo.Save(f.state.Snapshot()); err != nil {
		metrics.SnapshotFlushesTotal.WithLabelValues("error").Inc()
		if f.logger != nil {
			f.logger.Database().Error("Snapshot flush failed; state held in memory", "error", err.Error())
		}
		return
	}
	metrics.SnapshotFlushesTotal.WithLabelValues("success").Inc()
}
