// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"
	"time"

	"github.com/beaconview/beaconview-go/internal/application/container"
	"github.com/beaconview/beaconview-go/internal/presentation/http/handlers"
	"github.com/beaconview/beaconview-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	collectHandlers := handlers.NewCollectHandlers(container.IngestionService, container.Broadcaster, container.Logger)
	siteHandlers := handlers.NewSiteHandlers(container.SiteService, container.Logger)
	visitorHandlers := handlers.NewVisitorHandlers(container.VisitorService, container.Logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.AnalyticsService, container.Logger)
	linkHandlers := handlers.NewLinkHandlers(container.LinkService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	liveBoardHandlers := handlers.NewLiveBoardHandlers(container.LiveBoard, container.Logger)

	// Public endpoints reached by visitor browsers.
	r.GET("/bv.js", collectHandlers.GetCollectorScript)
	r.GET("/l/:linkId", linkHandlers.GetRedirect)
	r.POST("/api/v1/collect", collectHandlers.PostCollect)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Dashboard endpoints require an admin token.
		dashboard := api.Group("")
		dashboard.Use(authHandlers.AuthMiddleware())
		{
			dashboard.POST("/sites", siteHandlers.PostSite)
			dashboard.GET("/sites", siteHandlers.GetSites)
			dashboard.GET("/sites/:siteId", siteHandlers.GetSite)
			dashboard.DELETE("/sites/:siteId", siteHandlers.DeleteSite)

			dashboard.GET("/visitors", visitorHandlers.GetVisitors)
			dashboard.GET("/visitors/:visitorId", visitorHandlers.GetVisitor)

			dashboard.GET("/analytics/dashboard", analyticsHandlers.GetDashboard)
			dashboard.GET("/sessions/active", analyticsHandlers.GetActiveSessions)

			dashboard.POST("/links", linkHandlers.PostLink)
			dashboard.GET("/links", linkHandlers.GetLinks)

			dashboard.GET("/stream", collectHandlers.GetStream)
			dashboard.GET("/live", liveBoardHandlers.GetLiveBoard)
		}
	}

	return r
}
