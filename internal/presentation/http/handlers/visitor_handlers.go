package handlers

import (
	"net/http"
	"strconv"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// VisitorHandlers contains the visitor directory HTTP handlers.
type VisitorHandlers struct {
	visitorService *services.VisitorService
	logger         *logging.ChanneledLogger
}

// NewVisitorHandlers creates visitor handlers with injected dependencies.
func NewVisitorHandlers(visitorService *services.VisitorService, logger *logging.ChanneledLogger) *VisitorHandlers {
	return &VisitorHandlers{visitorService: visitorService, logger: logger}
}

// GetVisitors handles GET /api/v1/visitors with filter, sort, and paging
// query params.
func (h *VisitorHandlers) GetVisitors(c *gin.Context) {
	filter := services.VisitorFilter{
		SiteID: c.Query("siteId"),
		SortBy: c.DefaultQuery("sortBy", services.SortLastSeen),
	}

	if raw := c.Query("identified"); raw != "" {
		identified, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "identified must be true or false"})
			return
		}
		filter.Identified = &identified
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		filter.Offset = offset
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	switch filter.SortBy {
	case services.SortLastSeen, services.SortEngagementScore, services.SortTotalPageviews:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sortBy value"})
		return
	}

	c.JSON(http.StatusOK, h.visitorService.ListVisitors(filter))
}

// GetVisitor handles GET /api/v1/visitors/:visitorId - full profile with
// session timeline.
func (h *VisitorHandlers) GetVisitor(c *gin.Context) {
	detail, err := h.visitorService.GetVisitor(c.Param("visitorId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}
