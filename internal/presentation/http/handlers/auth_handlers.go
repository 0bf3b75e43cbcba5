package handlers

import (
	"net/http"
	"strings"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains the dashboard authentication HTTP handlers.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies.
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{authService: authService, logger: logger}
}

// PostLogin handles POST /api/v1/auth/login - exchanges the admin password
// for a JWT.
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.authService.AuthenticateAdmin(req.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAuthStatus handles GET /api/v1/auth/status - reports whether the
// bearer token is still valid.
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	if _, err := h.authService.ValidateJWT(token); err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// AuthMiddleware guards the dashboard API routes.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := h.authService.ValidateJWT(token)
		if err != nil {
			h.logger.Auth().Warn("Rejected invalid token", "path", c.Request.URL.Path, "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// EventSource cannot set headers, so the stream passes the token in
	// the query string.
	return c.Query("token")
}
