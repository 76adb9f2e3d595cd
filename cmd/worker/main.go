package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"moneypool-backend/internal/bootstrap"
	"moneypool-backend/internal/config"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/queue"
	"moneypool-backend/internal/repository/postgres"
)

// The worker delivers notifications queued by the server when
// notifications.mode is "queue".
func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Money Pool notification worker...", "log_level", cfg.Log.Level)

	if cfg.Notifications.Mode != "queue" {
		log.Fatalf("notifications.mode is %q, the worker only runs in queue mode", cfg.Notifications.Mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialise database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	dispatcher, err := bootstrap.NewDispatcher(ctx, cfg, store)
	if err != nil {
		log.Fatalf("Failed to initialise notification channels: %v", err)
	}

	redisCfg := bootstrap.RedisConfig(cfg)
	if err := queue.Ping(ctx, redisCfg); err != nil {
		log.Fatalf("Redis is not reachable: %v", err)
	}

	worker := queue.NewWorker(redisCfg, cfg.Notifications.WorkerConcurrency, dispatcher)
	logger.Info("Worker is running. Press Ctrl+C to stop.", "concurrency", cfg.Notifications.WorkerConcurrency)
	if err := worker.Run(ctx); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
	logger.Info("Worker stopped. Goodbye!")
}
