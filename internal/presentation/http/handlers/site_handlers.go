package handlers

import (
	"net/http"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// SiteHandlers contains the site registry HTTP handlers.
type SiteHandlers struct {
	siteService *services.SiteService
	logger      *logging.ChanneledLogger
}

// NewSiteHandlers creates site handlers with injected dependencies.
func NewSiteHandlers(siteService *services.SiteService, logger *logging.ChanneledLogger) *SiteHandlers {
	return &SiteHandlers{siteService: siteService, logger: logger}
}

// PostSite handles POST /api/v1/sites - registers a tracked site.
func (h *SiteHandlers) PostSite(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.siteService.Create(req.Name, req.Domain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetSites handles GET /api/v1/sites - lists sites with traffic totals.
func (h *SiteHandlers) GetSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": h.siteService.List()})
}

// GetSite handles GET /api/v1/sites/:siteId.
func (h *SiteHandlers) GetSite(c *gin.Context) {
	s, err := h.siteService.Get(c.Param("siteId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteSite handles DELETE /api/v1/sites/:siteId. Historical events for the
// site are kept; only the registration goes away.
func (h *SiteHandlers) DeleteSite(c *gin.Context) {
	if err := h.siteService.Delete(c.Param("siteId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
