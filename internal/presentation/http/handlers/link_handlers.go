package handlers

import (
	"errors"
	"net/http"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/domain/link"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// LinkHandlers contains the tracked link HTTP handlers.
type LinkHandlers struct {
	linkService *services.LinkService
	logger      *logging.ChanneledLogger
}

// NewLinkHandlers creates link handlers with injected dependencies.
func NewLinkHandlers(linkService *services.LinkService, logger *logging.ChanneledLogger) *LinkHandlers {
	return &LinkHandlers{linkService: linkService, logger: logger}
}

// PostLink handles POST /api/v1/links - mints a tracked link for an
// outreach message.
func (h *LinkHandlers) PostLink(c *gin.Context) {
	var req struct {
		SiteID      string         `json:"siteId"`
		OriginalURL string         `json:"originalUrl"`
		MessageType string         `json:"messageType"`
		Lead        *link.LeadInfo `json:"lead"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.linkService.Create(req.SiteID, req.OriginalURL, req.MessageType, req.Lead)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetLinks handles GET /api/v1/links - lists tracked links, newest first.
func (h *LinkHandlers) GetLinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.linkService.List(c.Query("siteId"))})
}

// GetRedirect handles GET /l/:linkId - records the click and bounces the
// visitor to the original URL with the tracking token appended.
func (h *LinkHandlers) GetRedirect(c *gin.Context) {
	target, err := h.linkService.Resolve(c.Param("linkId"))
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redirect failed"})
		return
	}
	c.Redirect(http.StatusFound, target)
}
