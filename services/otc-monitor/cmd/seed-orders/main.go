package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"time"

	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

func main() {
	var (
		references = flag.String("references", "btc-usdt=65000,eth-usdt=3200,ton-btc=0.000083", "Reference prices as base-quote=price pairs")
		count      = flag.Int("count", 100, "Number of orders to insert")
		spread     = flag.Float64("spread", 0.02, "Maximum relative distance from the reference price")
		broker     = flag.String("broker", "", "meta.broker tag (defaults to MONITOR_BROKER)")
	)
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *broker == "" {
		*broker = cfg.Monitor.Broker
	}

	refs, err := parseReferences(*references)
	if err != nil {
		log.Fatalf("Failed to parse references: %v", err)
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

	repo := orderInfra.NewRepository(pgClient, appLogger)
	seed := uint64(time.Now().UnixNano())
	orders := generateOrders(rand.New(rand.NewPCG(seed, seed>>1)), refs, *count, *spread, *broker, time.Now().UTC())

	// All or nothing, so a rerun never leaves a half seeded table.
	err = postgresql.WithTx(ctx, pgClient, func(txCtx context.Context) error {
		for _, order := range orders {
			if err := repo.Store(txCtx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to seed orders: %v", err)
	}

	log.Printf("Seeded %d %s orders across %d symbols", len(orders), *broker, len(refs))
}
