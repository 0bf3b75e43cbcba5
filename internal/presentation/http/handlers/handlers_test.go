package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/geo"
	"github.com/beaconview/beaconview-go/internal/infrastructure/messaging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		DefaultLevel:  slog.LevelError + 4,
		ChannelLevels: map[logging.Channel]slog.Level{},
	})
	require.NoError(t, err)
	return logger
}

func newTestState(t *testing.T) (*manager.Manager, *snapshot.Flusher) {
	t.Helper()
	state := manager.NewManager(nil)
	return state, snapshot.NewFlusher(nil, state, time.Hour, nil)
}

func TestPostCollectAlwaysAcks(t *testing.T) {
	state, flusher := newTestState(t)
	broadcaster := messaging.NewEventBroadcaster(4, nil)
	ingestion := services.NewIngestionService(state, geo.NewResolver(nil), broadcaster, flusher, nil, nil)
	h := NewCollectHandlers(ingestion, broadcaster, quietLogger(t))

	r := gin.New()
	r.POST("/api/v1/collect", h.PostCollect)

	valid := `{"siteId":"site-1","fingerprint":"fp-1","sessionId":"sess-1","type":"pageview","data":{"page":"/home"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collect", strings.NewReader(valid))
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Garbage gets the same acknowledgment; the sender cannot react.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/collect", strings.NewReader("{{{"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetRedirect(t *testing.T) {
	state, flusher := newTestState(t)
	linkSvc := services.NewLinkService(state, flusher, nil)
	h := NewLinkHandlers(linkSvc, quietLogger(t))

	created, err := linkSvc.Create("site-1", "https://example.com/offer", "email", nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/l/:linkId", h.GetRedirect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/l/"+created.LinkID, nil))
	assert.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "example.com/offer")
	assert.Contains(t, location, "_bvt="+created.LinkID)

	stored, _ := state.Links.Get(created.LinkID)
	assert.Equal(t, 1, stored.Clicks)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/l/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCollectorScript(t *testing.T) {
	h := NewCollectHandlers(nil, nil, quietLogger(t))

	r := gin.New()
	r.GET("/bv.js", h.GetCollectorScript)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bv.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, w.Body.String(), "data-site-id")
	assert.Contains(t, w.Body.String(), "_bvt")
}

func TestGetDashboardSiteFilterIsOptional(t *testing.T) {
	state, _ := newTestState(t)
	h := NewAnalyticsHandlers(services.NewAnalyticsService(state, nil), quietLogger(t))

	r := gin.New()
	r.GET("/api/v1/analytics/dashboard", h.GetDashboard)

	// No siteId aggregates across all sites.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"uniqueVisitors\"")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard?siteId=site-1&window=7d", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard?window=fortnight", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddlewareGuardsDashboard(t *testing.T) {
	prevPassword, prevSecret := config.AdminPassword, config.JWTSecret
	config.AdminPassword = "hunter2"
	config.JWTSecret = "test-secret"
	t.Cleanup(func() {
		config.AdminPassword = prevPassword
		config.JWTSecret = prevSecret
	})

	authSvc := services.NewAuthService(nil)
	h := NewAuthHandlers(authSvc, quietLogger(t))

	r := gin.New()
	protected := r.Group("")
	protected.Use(h.AuthMiddleware())
	protected.GET("/secret", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := authSvc.AuthenticateAdmin("hunter2").Token
	require.NotEmpty(t, token)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// EventSource clients pass the token as a query parameter instead.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
