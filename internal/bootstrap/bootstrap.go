// Package bootstrap holds the wiring shared by the server, worker and
// cronjob binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"moneypool-backend/internal/config"
	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/mailer"
	"moneypool-backend/internal/push"
	"moneypool-backend/internal/queue"
	"moneypool-backend/internal/repository/postgres"
	"moneypool-backend/internal/service"
)

const appName = "Money Pool"

// OpenDatabase connects to PostgreSQL, verifies the connection and applies
// migrations when auto_migrate is set.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
}

// SeedSettings writes the configured pool rules if the settings row does not
// exist yet. Existing settings are never overwritten.
func SeedSettings(ctx context.Context, cfg *config.Config, store *postgres.Store) error {
	return store.SettingsRepository.Seed(ctx, &domain.SystemSettings{
		MinDepositAmount:       cfg.Pool.MinDepositAmount,
		PenaltyRatePerThousand: cfg.Pool.PenaltyRatePerThousand,
		PenaltyStartDay:        cfg.Pool.PenaltyStartDay,
	})
}

func RedisConfig(cfg *config.Config) queue.RedisConfig {
	return queue.RedisConfig{
		Addr:     cfg.Notifications.RedisAddr,
		Password: cfg.Notifications.RedisPassword,
		DB:       cfg.Notifications.RedisDB,
	}
}

// NewDispatcher builds the notifier that actually delivers: in-app record,
// email and, when Firebase credentials are configured, push.
func NewDispatcher(ctx context.Context, cfg *config.Config, store *postgres.Store) (*service.Dispatcher, error) {
	sender, err := mailer.New(mailer.Config{
		Provider:       cfg.SMTP.Provider,
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		User:           cfg.SMTP.User,
		Password:       cfg.SMTP.Password,
		From:           cfg.SMTP.From,
		FromName:       cfg.SMTP.FromName,
		SendGridAPIKey: cfg.SMTP.SendGridAPIKey,
	})
	if err != nil {
		return nil, err
	}

	var pushSender service.PushSender
	if cfg.Notifications.FirebaseCredentials != "" {
		fcm, err := push.NewFirebaseSender(ctx, cfg.Notifications.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		pushSender = fcm
		logger.Info("Push notifications enabled")
	}

	return service.NewDispatcher(
		store.MemberRepository,
		store.NotificationRepository,
		service.NewEmailService(sender, appName),
		pushSender,
		service.NewRenderer(appName),
	), nil
}

// NewNotifier returns the notifier used by workflows. In queue mode events
// are handed to Redis and delivered by the worker binary; otherwise they are
// delivered inline. The returned close func is never nil.
func NewNotifier(ctx context.Context, cfg *config.Config, store *postgres.Store) (service.Notifier, func() error, error) {
	if cfg.Notifications.Mode == "queue" {
		redisCfg := RedisConfig(cfg)
		if err := queue.Ping(ctx, redisCfg); err != nil {
			return nil, nil, err
		}
		n := queue.NewAsyncNotifier(redisCfg)
		logger.Info("Notifications are queued", "redis", redisCfg.Addr)
		return n, n.Close, nil
	}

	d, err := NewDispatcher(ctx, cfg, store)
	if err != nil {
		return nil, nil, err
	}
	return d, func() error { return nil }, nil
}
