// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/email"
	"github.com/beaconview/beaconview-go/internal/infrastructure/geo"
	"github.com/beaconview/beaconview-go/internal/infrastructure/messaging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/persistence/snapshot"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies.
type Container struct {
	// Application services
	IngestionService *services.IngestionService
	VisitorService   *services.VisitorService
	AnalyticsService *services.AnalyticsService
	SiteService      *services.SiteService
	LinkService      *services.LinkService
	AuthService      *services.AuthService

	// Infrastructure
	StateManager *manager.Manager
	Broadcaster  *messaging.EventBroadcaster
	LiveBoard    *messaging.LiveBoard
	Flusher      *snapshot.Flusher
	Logger       *logging.ChanneledLogger
}

// NewContainer wires all singleton services. The email service is optional;
// a nil emailSvc disables lead alerts.
func NewContainer(
	state *manager.Manager,
	flusher *snapshot.Flusher,
	emailSvc email.Service,
	logger *logging.ChanneledLogger,
) *Container {
	broadcaster := messaging.NewEventBroadcaster(config.StreamBufferSize, logger)
	liveBoard := messaging.NewLiveBoard(state, config.LiveBoardInterval, logger)
	geoResolver := geo.NewResolver(logger)

	return &Container{
		IngestionService: services.NewIngestionService(state, geoResolver, broadcaster, flusher, emailSvc, logger),
		VisitorService:   services.NewVisitorService(state, logger),
		AnalyticsService: services.NewAnalyticsService(state, logger),
		SiteService:      services.NewSiteService(state, flusher, logger),
		LinkService:      services.NewLinkService(state, flusher, logger),
		AuthService:      services.NewAuthService(logger),

		StateManager: state,
		Broadcaster:  broadcaster,
		LiveBoard:    liveBoard,
		Flusher:      flusher,
		Logger:       logger,
	}
}
