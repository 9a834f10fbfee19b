package app

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/internal/config"
	"github.com/tidyhost/tidyhost/internal/database"
	"github.com/tidyhost/tidyhost/internal/event_bus"
)

// Application wires configuration, database, router, scheduler, and server lifecycle.
type Application struct {
	cfg    config.Application
	router *mux.Router
	srv    *http.Server
	deps   *Dependencies
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Build dependencies (services, handlers...)
	deps := BuildDependencies(db, cfg)

	// Middleware chain
	SetupMiddleware(r, deps, cfg)

	// Routes
	RegisterRoutes(r, deps, cfg)

	// Sync outcomes are logged centrally; the mobile clients' live refresh
	// subscribes to the same event through the realtime gateway.
	event_bus.SubscribeTyped[event_bus.CalendarSyncCompleted](deps.Bus, event_bus.CalendarSyncCompletedEvent,
		func(e event_bus.EventT[event_bus.CalendarSyncCompleted]) error {
			log.Infof("calendar sync completed for %s: created=%d updated=%d deleted=%d skipped=%d",
				e.Data.Address, e.Data.Created, e.Data.Updated, e.Data.Deleted, e.Data.Skipped)
			return nil
		})

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, router: r, srv: srv, deps: deps}, nil
}

// Run starts the recurring sync scheduler and the HTTP server, and blocks.
func (a *Application) Run() error {
	if err := a.deps.Scheduler.Start(); err != nil {
		return err
	}
	defer a.deps.Scheduler.Stop()

	log.Infof("Starting server on %s", a.srv.Addr)
	return a.srv.ListenAndServe()
}
