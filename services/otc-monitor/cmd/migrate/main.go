package main

import (
	"context"
	"flag"
	"log"

	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	migration "github.com/muhammadchandra19/otc-monitor/pkg/migration-pg"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/migrations"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

func main() {
	var (
		direction = flag.String("direction", "up", "Migration direction: up or down")
		steps     = flag.Int("steps", 0, "Number of steps to migrate (0 = all)")
	)
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize PostgreSQL client
	pgClient, err := postgresql.NewClient(ctx, cfg.PostgreSQL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	// Create migration runner
	runner := migration.NewRunner(pgClient, migrations.FS, appLogger, migration.Config{
		Schema:    "public",
		TableName: "schema_migrations",
	})

	// Ensure migration tracking table exists
	if err := runner.EnsureMigrationTable(ctx); err != nil {
		log.Fatalf("Failed to create migration table: %v", err)
	}

	// Run migrations based on direction
	switch *direction {
	case "up":
		if err := runner.MigrateUp(ctx, *steps); err != nil {
			log.Fatalf("Failed to migrate up: %v", err)
		}
	case "down":
		if err := runner.MigrateDown(ctx, *steps); err != nil {
			log.Fatalf("Failed to migrate down: %v", err)
		}
	default:
		log.Fatalf("Invalid direction: %s. Use 'up' or 'down'", *direction)
	}

	log.Printf("Migration %s completed successfully", *direction)
}
