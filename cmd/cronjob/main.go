package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"moneypool-backend/internal/bootstrap"
	"moneypool-backend/internal/config"
	"moneypool-backend/internal/jobs"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository/postgres"
	"moneypool-backend/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-missed-months', 'send-deposit-reminders', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Money Pool Cronjob Runner...", "log_level", cfg.Log.Level, "timezone", cfg.Pool.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialise database", "error", err)
		log.Fatalf("Failed to initialise database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	notifier, closeNotifier, err := bootstrap.NewNotifier(ctx, cfg, store)
	if err != nil {
		log.Fatalf("Failed to initialise notifications: %v", err)
	}
	defer closeNotifier()

	jobRunner := jobs.NewJobRunner(&jobs.Dependencies{
		Settings: store.SettingsRepository,
		Txr:      store,
		Notifier: notifier,
	}, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			fmt.Fprintf(os.Stderr, "Available jobs:\n  - %s\n  - %s\n  - all\n", jobs.JobMarkMissedMonths, jobs.JobSendDepositReminders)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
