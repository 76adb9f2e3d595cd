package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "moneypool-backend/internal/api/http"
	"moneypool-backend/internal/bootstrap"
	"moneypool-backend/internal/config"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository/postgres"
	"moneypool-backend/internal/security"
	"moneypool-backend/internal/service"
	"moneypool-backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Money Pool Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "timezone", cfg.Pool.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialise database", "error", err)
		log.Fatalf("Failed to initialise database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	if err := bootstrap.SeedSettings(ctx, cfg, store); err != nil {
		log.Fatalf("Failed to seed system settings: %v", err)
	}
	loc := cfg.Location()

	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)

	storageService, err := storage.New(storage.Config{
		Type:       cfg.Storage.Type,
		Dir:        cfg.Storage.UploadDir,
		BaseURL:    cfg.Storage.BaseURL,
		SigningKey: cfg.Storage.SigningKey,
	})
	if err != nil {
		logger.Error("Failed to initialise storage", "error", err)
		log.Fatalf("Failed to initialise storage: %v", err)
	}
	localStorage, _ := storageService.(*storage.MockStorageService)

	notifier, closeNotifier, err := bootstrap.NewNotifier(ctx, cfg, store)
	if err != nil {
		logger.Error("Failed to initialise notifications", "error", err)
		log.Fatalf("Failed to initialise notifications: %v", err)
	}
	defer closeNotifier()

	services := httpapi.Services{
		Auth:          service.NewAuthService(store.MemberRepository, tokenManager),
		Profile:       service.NewProfileService(store.MemberRepository),
		Deposits:      service.NewDepositService(store.MemberRepository, store.DepositRepository, store.SettingsRepository, store, loc),
		Approvals:     service.NewApprovalService(store.DepositRepository, store.AuditRepository, store, notifier),
		Members:       service.NewMembershipService(store.MemberRepository, store.LedgerRepository, store, notifier),
		Stats:         service.NewStatsService(store.StatsRepository, store.LedgerRepository, store.DepositRepository, store.SettingsRepository, loc),
		Settings:      service.NewSettingsService(store.SettingsRepository, store),
		Notifications: service.NewNotificationService(store.NotificationRepository),
		Proofs: service.NewProofService(
			storageService,
			cfg.Storage.AllowedTypes,
			time.Duration(cfg.Storage.PresignedExpiryMins)*time.Minute,
		),
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Services:          services,
		Tokens:            tokenManager,
		LocalStorage:      localStorage,
		AllowedTypes:      cfg.Storage.AllowedTypes,
		MaxUploadBytes:    cfg.Storage.MaxFileSize << 20,
		Location:          loc,
		AuthRatePerMinute: cfg.Server.AuthRatePerMinute,
		TLS:               cfg.Server.TLS,
		MetricsPath:       metricsPath,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
