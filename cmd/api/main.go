package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bloodbank-backend/api/controllers"
	"github.com/angelmondragon/bloodbank-backend/api/routes"
	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/dashboard"
	"github.com/angelmondragon/bloodbank-backend/internal/donations"
	"github.com/angelmondragon/bloodbank-backend/internal/donors"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/internal/notifications"
	"github.com/angelmondragon/bloodbank-backend/internal/recipients"
	"github.com/angelmondragon/bloodbank-backend/internal/requests"
	"github.com/angelmondragon/bloodbank-backend/pkg/config"
	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/instance"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/metrics"
	"github.com/angelmondragon/bloodbank-backend/pkg/migrate"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	"github.com/angelmondragon/bloodbank-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	auditSvc, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	broadcaster, err := notifications.NewBroadcaster(redisClient, cfg.Inventory.NotifyChannel, logg)
	if err != nil {
		return err
	}

	stockSvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:              inventory.NewRepository(dbClient.DB()),
		Tx:                dbClient,
		Outbox:            emitter,
		Audit:             auditSvc,
		Notifier:          broadcaster,
		Metrics:           metrics.NewStockMetrics(registry),
		Logger:            logg,
		ReadRetryAttempts: cfg.Inventory.ReadRetryAttempts,
		ReadRetryBackoff:  cfg.Inventory.ReadRetryBackoff,
	})
	if err != nil {
		return err
	}

	donorRepo := donors.NewRepository(dbClient.DB())
	donorSvc, err := donors.NewService(donorRepo, dbClient, auditSvc)
	if err != nil {
		return err
	}

	recipientRepo := recipients.NewRepository(dbClient.DB())
	recipientSvc, err := recipients.NewService(recipientRepo, dbClient, auditSvc)
	if err != nil {
		return err
	}

	requestRepo := requests.NewRepository(dbClient.DB())
	requestSvc, err := requests.NewService(requestRepo, dbClient, stockSvc, recipientRepo, emitter, auditSvc)
	if err != nil {
		return err
	}

	donationSvc, err := donations.NewService(donations.ServiceParams{
		Repo:         donations.NewRepository(dbClient.DB()),
		Donors:       donorRepo,
		Ledger:       stockSvc,
		Outbox:       emitter,
		Audit:        auditSvc,
		IntervalDays: cfg.Inventory.DonationIntervalDays,
	})
	if err != nil {
		return err
	}

	alertSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), dbClient, auditSvc)
	if err != nil {
		return err
	}

	dashboardSvc, err := dashboard.NewService(dashboard.Sources{
		Stock:      stockSvc,
		Donors:     donorRepo,
		Recipients: recipientRepo,
		Requests:   requestRepo,
		Donations:  donationSvc,
		Alerts:     alertSvc,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"instance": instance.GetID(),
		"env":      cfg.App.Env,
		"addr":     addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			routes.Services{
				Inventory:     stockSvc,
				Donors:        donorSvc,
				Donations:     donationSvc,
				Recipients:    recipientSvc,
				Requests:      requestSvc,
				Dashboard:     dashboardSvc,
				Notifications: alertSvc,
				Audit:         auditSvc,
			},
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
