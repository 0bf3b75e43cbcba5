package services

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkService(t *testing.T) (*LinkService, *manager.Manager) {
	t.Helper()
	state := manager.NewManager(nil)
	flusher := snapshot.NewFlusher(nil, state, time.Hour, nil)
	return NewLinkService(state, flusher, nil), state
}

func TestLinkServiceCreateRequiresURL(t *testing.T) {
	svc, _ := newLinkService(t)

	_, err := svc.Create("site-1", "", "email", nil)
	assert.Error(t, err)

	l, err := svc.Create("site-1", "https://example.com/offer", "email", &link.LeadInfo{Name: "Ada"})
	require.NoError(t, err)
	assert.NotEmpty(t, l.LinkID)
	assert.Equal(t, 0, l.Clicks)
}

func TestLinkServiceResolveRecordsClick(t *testing.T) {
	svc, state := newLinkService(t)

	l, err := svc.Create("site-1", "https://example.com/offer", "linkedin", nil)
	require.NoError(t, err)

	target, err := svc.Resolve(l.LinkID)
	require.NoError(t, err)

	parsed, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "/offer", parsed.Path)
	assert.Equal(t, l.LinkID, parsed.Query().Get(link.TokenParam))

	stored, _ := state.Links.Get(l.LinkID)
	assert.Equal(t, 1, stored.Clicks)
	require.NotNil(t, stored.LastClicked)
}

func TestLinkServiceResolveLogsUpdatedClickCount(t *testing.T) {
	logDir := t.TempDir()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:  true,
		LogDirectory:  logDir,
		JSONFormat:    true,
		DefaultLevel:  slog.LevelDebug,
		ChannelLevels: map[logging.Channel]slog.Level{},
	})
	require.NoError(t, err)

	state := manager.NewManager(nil)
	flusher := snapshot.NewFlusher(nil, state, time.Hour, nil)
	svc := NewLinkService(state, flusher, logger)

	l, err := svc.Create("site-1", "https://example.com/offer", "email", nil)
	require.NoError(t, err)

	_, err = svc.Resolve(l.LinkID)
	require.NoError(t, err)
	_, err = svc.Resolve(l.LinkID)
	require.NoError(t, err)

	// The resolution log carries the count including the click it records.
	logged, err := os.ReadFile(filepath.Join(logDir, "system.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"clicks":1`)
	assert.Contains(t, string(logged), `"clicks":2`)
}

func TestLinkServiceResolveUnknownToken(t *testing.T) {
	svc, _ := newLinkService(t)

	_, err := svc.Resolve("no-such-link")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkServiceListFiltersBySite(t *testing.T) {
	svc, _ := newLinkService(t)

	first, err := svc.Create("site-1", "https://example.com/a", "email", nil)
	require.NoError(t, err)
	_, err = svc.Create("site-2", "https://example.com/b", "email", nil)
	require.NoError(t, err)

	all := svc.List("")
	assert.Len(t, all, 2)

	scoped := svc.List("site-1")
	require.Len(t, scoped, 1)
	assert.Equal(t, first.LinkID, scoped[0].LinkID)
}
