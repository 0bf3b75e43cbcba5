package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows any origin. The collector snippet runs on customer
// sites whose domains are not known ahead of time, so the beacon and stream
// endpoints must accept cross-origin requests from anywhere.
func CORSMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			"GET", "POST", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control", "Connection",
		},
		MaxAge: 12 * time.Hour,
	}

	return cors.New(config)
}
