// Package database provides the core functionality for creating and
// managing database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB is a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewConnection establishes a database connection for the configured mode:
// a local sqlite file by default, or a remote Turso database when
// DATABASE_MODE is "turso".
func NewConnection(logger *logging.ChanneledLogger) (*DB, error) {
	driverName, dataSourceName := connectionParams()

	start := time.Now()
	if logger != nil {
		logger.Database().Debug("Creating database connection", "driver", driverName)
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		if logger != nil {
			logger.Database().Error("Failed to open database connection", "error", err.Error(), "driver", driverName)
		}
		return nil, err
	}

	if err = db.Ping(); err != nil {
		if logger != nil {
			logger.Database().Error("Database ping failed", "error", err.Error(), "driver", driverName)
		}
		return nil, err
	}

	if logger != nil {
		logger.Database().Info("Database connection established", "driver", driverName, "duration", time.Since(start))
	}
	return &DB{db}, nil
}

func connectionParams() (driverName, dataSourceName string) {
	if config.DatabaseMode == "turso" && config.TursoURL != "" {
		return "libsql", fmt.Sprintf("%s?authToken=%s", config.TursoURL, config.TursoToken)
	}
	return "sqlite3", config.SQLitePath
}
