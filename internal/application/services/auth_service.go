package services

import (
	"fmt"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/pkg/config"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles dashboard authentication and JWT operations.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates an authentication service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// AuthResult holds authentication result data.
type AuthResult struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateAdmin validates the admin password and generates a JWT.
// The configured password may be a bcrypt hash or, for local installs,
// plaintext.
func (a *AuthService) AuthenticateAdmin(password string) *AuthResult {
	if config.AdminPassword == "" {
		return &AuthResult{Success: false, Error: "admin access not configured"}
	}

	valid := false
	if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPassword), []byte(password)); err == nil {
		valid = true
	}
	// Fallback for plaintext passwords during transition/testing
	if !valid && password == config.AdminPassword {
		valid = true
	}

	if !valid {
		if a.logger != nil {
			a.logger.Auth().Warn("Admin authentication failed")
		}
		return &AuthResult{Success: false, Error: "invalid credentials"}
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"type": "admin_auth",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token, err := a.GenerateJWT(claims)
	if err != nil {
		return &AuthResult{Success: false, Error: "token generation failed"}
	}

	if a.logger != nil {
		a.logger.Auth().Info("Admin authenticated")
	}
	return &AuthResult{Success: true, Token: token}
}

// GenerateJWT signs claims with the configured secret.
func (a *AuthService) GenerateJWT(claims jwt.MapClaims) (string, error) {
	if config.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// ValidateJWT parses and validates a token string, returning its claims.
func (a *AuthService) ValidateJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
