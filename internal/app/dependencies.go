package app

import (
	"database/sql"
	"time"

	"github.com/tidyhost/tidyhost/internal/config"
	"github.com/tidyhost/tidyhost/internal/event_bus"
	"github.com/tidyhost/tidyhost/internal/scheduler"
	"github.com/tidyhost/tidyhost/internal/utils"
	"github.com/tidyhost/tidyhost/pkg/calsync"
	"github.com/tidyhost/tidyhost/pkg/feed"
	"github.com/tidyhost/tidyhost/pkg/host"
	"github.com/tidyhost/tidyhost/pkg/job"
	"github.com/tidyhost/tidyhost/pkg/property"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *event_bus.EventBus
	Clock utils.Clock

	HostService host.Service
	HostHandler *host.Handler

	JobRepo    job.Repository
	JobService job.Service
	JobHandler *job.Handler

	PropertyRepo    property.Repository
	PropertyService property.Service
	PropertyHandler *property.Handler

	FeedFetcher *feed.Fetcher

	SyncService *calsync.Service
	SyncHandler *calsync.Handler

	Scheduler *scheduler.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.HostService = host.NewHostService(host.NewHostRepo(db))
	deps.HostHandler = host.NewHandler(deps.HostService)

	deps.JobRepo = job.NewRepository(db)
	deps.JobService = job.NewService(deps.JobRepo, deps.Bus)
	deps.JobHandler = job.NewHandler(deps.JobService)

	deps.PropertyRepo = property.NewRepository(db)

	deps.FeedFetcher = feed.NewFetcher(time.Duration(cfg.Sync.FetchTimeoutSeconds) * time.Second)
	deps.SyncService = calsync.NewService(deps.PropertyRepo, deps.JobRepo, deps.FeedFetcher,
		deps.Bus, deps.Clock, cfg.Sync.MaxConcurrent)

	deps.PropertyService = property.NewService(deps.PropertyRepo, calsync.NewPropertyCalendarSync(deps.SyncService))
	deps.PropertyHandler = property.NewHandler(deps.PropertyService)

	deps.SyncHandler = calsync.NewHandler(deps.SyncService, deps.PropertyService)

	deps.Scheduler = scheduler.New(deps.SyncService, cfg.Sync.Interval)

	return deps
}
