// Package logging provides structured logging channels for BeaconView
// operations, one slog logger per subsystem.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Channel represents a logical logging channel for different system components
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"   // General system operations
	ChannelStartup  Channel = "startup"  // Application startup and initialization
	ChannelShutdown Channel = "shutdown" // Application shutdown and cleanup

	// Business logic channels
	ChannelIngest    Channel = "ingest"    // Beacon ingestion pipeline
	ChannelIdentity  Channel = "identity"  // Visitor identity resolution
	ChannelAnalytics Channel = "analytics" // Analytics computation and queries
	ChannelState     Channel = "state"     // In-memory state store operations
	ChannelAuth      Channel = "auth"      // Authentication and authorization

	// Infrastructure channels
	ChannelDatabase Channel = "database" // Snapshot persistence
	ChannelSSE      Channel = "sse"      // Server-sent events and live board
	ChannelEmail    Channel = "email"    // Lead alert emails
	ChannelGeo      Channel = "geo"      // Geolocation lookups

	// Development channels
	ChannelDebug Channel = "debug" // Debug information
)

// ChanneledLogger provides structured logging with multiple channels
type ChanneledLogger struct {
	channels map[Channel]*slog.Logger
	config   *LoggerConfig
	configMu sync.RWMutex
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool   `json:"outputToFile"`    // Whether to write logs to files
	OutputToConsole bool   `json:"outputToConsole"` // Whether to write logs to console
	LogDirectory    string `json:"logDirectory"`    // Directory for log files
	JSONFormat      bool   `json:"jsonFormat"`      // Use JSON format for structured logging
	IncludeSource   bool   `json:"includeSource"`   // Include source file and line in logs

	DefaultLevel  slog.Level             `json:"defaultLevel"`  // Default log level
	ChannelLevels map[Channel]slog.Level `json:"channelLevels"` // Per-channel log levels
}

// DefaultLoggerConfig returns a sensible default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    true,
		OutputToConsole: true,
		LogDirectory:    "logs",
		JSONFormat:      true,
		IncludeSource:   false,
		DefaultLevel:    slog.LevelInfo,
		ChannelLevels:   make(map[Channel]slog.Level),
	}
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	logger := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		config:   config,
	}

	if config.OutputToFile {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	channels := []Channel{
		ChannelSystem, ChannelStartup, ChannelShutdown,
		ChannelIngest, ChannelIdentity, ChannelAnalytics, ChannelState, ChannelAuth,
		ChannelDatabase, ChannelSSE, ChannelEmail, ChannelGeo,
		ChannelDebug,
	}

	for _, channel := range channels {
		channelLogger, err := logger.createChannelLogger(channel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for channel %s: %w", channel, err)
		}
		logger.channels[channel] = channelLogger
	}

	return logger, nil
}

// createChannelLogger creates a slog.Logger for a specific channel
func (cl *ChanneledLogger) createChannelLogger(channel Channel) (*slog.Logger, error) {
	cl.configMu.RLock()
	defer cl.configMu.RUnlock()

	level := cl.config.DefaultLevel
	if channelLevel, exists := cl.config.ChannelLevels[channel]; exists {
		level = channelLevel
	}

	var writers []io.Writer

	if cl.config.OutputToConsole {
		writers = append(writers, os.Stdout)
	}

	if cl.config.OutputToFile {
		filename := fmt.Sprintf("%s.log", string(channel))
		path := filepath.Join(cl.config.LogDirectory, filename)

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cl.config.IncludeSource,
	}

	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel))), nil
}

func (cl *ChanneledLogger) System() *slog.Logger    { return cl.channels[ChannelSystem] }
func (cl *ChanneledLogger) Startup() *slog.Logger   { return cl.channels[ChannelStartup] }
func (cl *ChanneledLogger) Shutdown() *slog.Logger  { return cl.channels[ChannelShutdown] }
func (cl *ChanneledLogger) Ingest() *slog.Logger    { return cl.channels[ChannelIngest] }
func (cl *ChanneledLogger) Identity() *slog.Logger  { return cl.channels[ChannelIdentity] }
func (cl *ChanneledLogger) Analytics() *slog.Logger { return cl.channels[ChannelAnalytics] }
func (cl *ChanneledLogger) State() *slog.Logger     { return cl.channels[ChannelState] }
func (cl *ChanneledLogger) Auth() *slog.Logger      { return cl.channels[ChannelAuth] }
func (cl *ChanneledLogger) Database() *slog.Logger  { return cl.channels[ChannelDatabase] }
func (cl *ChanneledLogger) SSE() *slog.Logger       { return cl.channels[ChannelSSE] }
func (cl *ChanneledLogger) Email() *slog.Logger     { return cl.channels[ChannelEmail] }
func (cl *ChanneledLogger) Geo() *slog.Logger       { return cl.channels[ChannelGeo] }
func (cl *ChanneledLogger) Debug() *slog.Logger     { return cl.channels[ChannelDebug] }

// GetChannel returns a logger for a specific channel
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// WithOperation returns a logger with operation context
func (cl *ChanneledLogger) WithOperation(channel Channel, operation string) *slog.Logger {
	return cl.GetChannel(channel).With(slog.String("operation", operation))
}

// LogSlowOperation logs an operation that exceeded its expected duration
func (cl *ChanneledLogger) LogSlowOperation(operation string, duration time.Duration) {
	cl.System().Warn("Slow operation detected",
		slog.String("operation", operation),
		slog.Duration("duration", duration),
	)
}
