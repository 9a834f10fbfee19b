package test_utils

import (
	"context"
	"database/sql"

	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tidyhost/tidyhost/internal/config"
	"github.com/tidyhost/tidyhost/internal/database"
)

// TestWithDB starts a throwaway Postgres container, applies all migrations,
// and returns an open connection plus a cleanup function for TestMain.
func TestWithDB() (*sql.DB, func()) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithDatabase("tidyhost"),
		postgres.WithUsername("test_tidyhost"),
		postgres.WithPassword("test_tidyhost"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   "test_tidyhost",
		Pass:   "test_tidyhost",
		Name:   "tidyhost",
		Schema: "public",
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open database connection: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		_ = container.Terminate(ctx)
	}
	return db, cleanup
}
