// Package config provides centralized default values for BeaconView
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// loadEnvFile loads environment variables from an optional .env file.
// Values already present in the environment win.
func loadEnvFile() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		// Try as integer seconds
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	PublicBaseURL      string

	// Identity & Event Log
	EventLogMax       int
	TimelineEventsMax int
	RecentVisitorsMax int
	TopPagesMax       int
	TopReferrersMax   int

	// Live Sessions
	SessionActiveWindow time.Duration

	// Geolocation
	GeoAPIURL        string
	GeoLookupTimeout time.Duration

	// Persistence
	DatabaseMode  string // "sqlite" or "turso"
	SQLitePath    string
	TursoURL      string
	TursoToken    string
	FlushDebounce time.Duration

	// SSE / Live Board
	MaxStreamConnections int
	StreamBufferSize     int
	LiveBoardInterval    time.Duration

	// Auth
	JWTSecret     string
	AdminPassword string

	// Email Alerts
	LeadAlertEmail string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// Write timeout stays disabled so SSE and websocket connections survive.
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	PublicBaseURL = getEnvString("PUBLIC_BASE_URL", "http://localhost:"+Port)

	// Identity & Event Log
	EventLogMax = getEnvInt("EVENT_LOG_MAX", 10000)
	TimelineEventsMax = getEnvInt("TIMELINE_EVENTS_MAX", 100)
	RecentVisitorsMax = getEnvInt("RECENT_VISITORS_MAX", 10)
	TopPagesMax = getEnvInt("TOP_PAGES_MAX", 10)
	TopReferrersMax = getEnvInt("TOP_REFERRERS_MAX", 10)

	// Live Sessions
	SessionActiveWindow = getEnvDuration("SESSION_ACTIVE_WINDOW", 5*time.Minute)

	// Geolocation
	GeoAPIURL = getEnvString("GEO_API_URL", "http://ip-api.com/json/")
	GeoLookupTimeout = getEnvDuration("GEO_LOOKUP_TIMEOUT", 4*time.Second)

	// Persistence
	DatabaseMode = getEnvString("DATABASE_MODE", "sqlite")
	SQLitePath = getEnvString("SQLITE_PATH", "beaconview.db")
	TursoURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoToken = getEnvString("TURSO_AUTH_TOKEN", "")
	FlushDebounce = getEnvDuration("FLUSH_DEBOUNCE", 30*time.Second)

	// SSE / Live Board
	MaxStreamConnections = getEnvInt("MAX_STREAM_CONNECTIONS", 1000)
	StreamBufferSize = getEnvInt("STREAM_BUFFER_SIZE", 100)
	LiveBoardInterval = getEnvDuration("LIVE_BOARD_INTERVAL", 10*time.Second)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")

	// Email Alerts
	LeadAlertEmail = getEnvString("LEAD_ALERT_EMAIL", "")
}
