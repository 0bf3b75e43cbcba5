// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beaconview/beaconview-go/internal/application/container"
	"github.com/beaconview/beaconview-go/internal/infrastructure/email"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/database"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/internal/presentation/http/server"
	"github.com/beaconview/beaconview-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence: restore state from the
// last snapshot, wire the container, start the server, and run until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("BeaconView starting")

	// Step 1: Database connection and snapshot repository
	db, err := database.NewConnection(logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo, err := snapshot.NewRepository(db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot repository: %w", err)
	}

	// Step 2: In-memory state, seeded from the last snapshot when one
	// exists. A missing or corrupt snapshot means a cold start, never a
	// failed one.
	state := manager.NewManager(logger)
	state.Restore(repo.Load())
	logger.Startup().Info("State restored from snapshot",
		"sites", state.Sites.Count(),
		"visitors", state.Visitors.Count(),
		"events", state.Events.Len(),
		"links", state.Links.Count())

	flusher := snapshot.NewFlusher(repo, state, config.FlushDebounce, logger)

	// Step 3: Optional lead alert email service
	var emailSvc email.Service
	if svc, err := email.NewService(logger); err != nil {
		logger.Startup().Warn("Email alerts disabled", "reason", err.Error())
	} else {
		emailSvc = svc
		logger.Startup().Info("Email alert service initialized")
	}

	// Step 4: Dependency injection container
	appContainer := container.NewContainer(state, flusher, emailSvc, logger)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 5: Background live board broadcaster
	go appContainer.LiveBoard.Run()

	// Step 6: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	// Final synchronous flush so nothing since the last debounce window is
	// lost.
	logger.Shutdown().Info("Flushing state snapshot...")
	flusher.Flush()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
