package handlers

import (
	"net/http"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers contains the dashboard analytics HTTP handlers.
type AnalyticsHandlers struct {
	analyticsService *services.AnalyticsService
	logger           *logging.ChanneledLogger
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies.
func NewAnalyticsHandlers(analyticsService *services.AnalyticsService, logger *logging.ChanneledLogger) *AnalyticsHandlers {
	return &AnalyticsHandlers{analyticsService: analyticsService, logger: logger}
}

// GetDashboard handles GET /api/v1/analytics/dashboard - aggregated metrics
// for a time window. An empty siteId aggregates across all sites.
func (h *AnalyticsHandlers) GetDashboard(c *gin.Context) {
	siteID := c.Query("siteId")

	window := c.DefaultQuery("window", services.WindowToday)
	switch window {
	case services.WindowToday, services.Window7d, services.Window30d, services.WindowAll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown window value"})
		return
	}

	c.JSON(http.StatusOK, h.analyticsService.ComputeDashboard(siteID, window))
}

// GetActiveSessions handles GET /api/v1/sessions/active - visitors active
// within the inactivity window, optionally scoped to one site.
func (h *AnalyticsHandlers) GetActiveSessions(c *gin.Context) {
	sessions := h.analyticsService.ListActiveSessions(c.Query("siteId"))
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "activeCount": len(sessions)})
}
