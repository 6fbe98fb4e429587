package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	pkgErrors "github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	"github.com/muhammadchandra19/otc-monitor/pkg/redis"
	"github.com/muhammadchandra19/otc-monitor/pkg/scheduler"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/bootstrap"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/consumer/pricefeed"
	execUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/execution"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

const redisWatchInterval = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := initLogger(cfg.App)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize Redis client
	redisClient := redis.NewClient(appLogger, &cfg.Redis)
	if err := redisClient.Connect(ctx); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
		os.Exit(1)
	}
	defer redisClient.Disconnect(context.Background())

	// Initialize PostgreSQL client
	pgClient, err := postgresql.NewClient(ctx, cfg.PostgreSQL)
	if err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
		os.Exit(1)
	}
	defer pgClient.Close()

	bootstrapConfig := bootstrap.BoostrapConfig{
		Config:     cfg,
		Redis:      redisClient,
		PostgreSQL: pgClient,
		Logger:     appLogger,
	}

	var executionWriter *kafka.Writer
	if cfg.Execution.Enabled {
		executionWriter = execUc.NewKafkaWriter(cfg.Execution.Brokers, cfg.Execution.Topic)
		bootstrapConfig.ExecutionWriter = executionWriter
	}
	if cfg.PriceFeed.Source == config.FeedSourceKafka {
		// The consumer owns the reader and closes it on Stop.
		bootstrapConfig.FeedReader = pricefeed.NewKafkaReader(cfg.PriceFeed)
	}

	b := (&bootstrap.Bootstrap{}).Init(bootstrapConfig)

	redisWatch := scheduler.New(watchRedis(redisClient, appLogger), appLogger, scheduler.Options{
		Name:     "redis-watch",
		Interval: redisWatchInterval,
	})
	if err := redisWatch.Start(ctx); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
		os.Exit(1)
	}

	go b.Consumer.Start(ctx)

	if err := b.Usecase.Monitor.Start(ctx); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           b.RPC.HTTP,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(pkgErrors.NewTracer(err.Error()))
			stop()
		}
	}()

	appLogger.Info("OTC monitor started",
		logger.NewField("app", cfg.App.Name),
		logger.NewField("environment", cfg.App.Environment),
		logger.NewField("http_port", cfg.App.HTTPPort),
		logger.NewField("price_feed", cfg.PriceFeed.Source),
		logger.NewField("execution_enabled", cfg.Execution.Enabled),
	)

	<-ctx.Done()
	appLogger.Info("Shutting down OTC monitor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(pkgErrors.NewTracer(err.Error()))
	}
	if err := b.Consumer.Stop(); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
	}
	if err := b.Usecase.Monitor.Stop(shutdownCtx); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
	}
	if err := redisWatch.Stop(shutdownCtx); err != nil {
		appLogger.Error(pkgErrors.TracerFromError(err))
	}
	// Drain the last batch before Redis goes away.
	b.Usecase.PriceCache.Close(shutdownCtx)
	if executionWriter != nil {
		if err := executionWriter.Close(); err != nil {
			appLogger.Error(pkgErrors.NewTracer(err.Error()))
		}
	}

	appLogger.Info("OTC monitor stopped")
}

func initLogger(app config.AppConfig) (*logger.Logger, error) {
	opts := []logger.Options{logger.WithLoggingLevel(logger.ParseLevel(app.LogLevel))}
	if app.Environment == "development" {
		opts = append(opts, logger.WithDevelopment())
	}
	if app.LogFile != "" {
		opts = append(opts, logger.WithRotatingFile(app.LogFile, app.LogMaxSizeMB, app.LogMaxBackups))
	}

	return logger.NewLogger(opts...)
}

// watchRedis pings Redis and falls back to Reconnect when the ping fails.
func watchRedis(client redis.Client, log logger.Interface) scheduler.Job {
	return func(ctx context.Context) {
		err := client.Ping(ctx)
		if err == nil {
			return
		}

		log.WarnContext(ctx, "Redis ping failed", logger.NewField("error", err.Error()))
		if !client.Reconnect(ctx) {
			log.ErrorContext(ctx, pkgErrors.NewTracer("redis is still unreachable"))
		}
	}
}
