package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltline/voltline-backend/internal/analytics"
	"github.com/voltline/voltline-backend/internal/cart"
	"github.com/voltline/voltline-backend/internal/cron"
	"github.com/voltline/voltline-backend/internal/notifications"
	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/db"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/metrics"
	"github.com/voltline/voltline-backend/pkg/migrate"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/redis"
)

const lockKeyFormat = "vl:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	outboxService := outbox.NewService(outboxRepo, logg)

	cartJob, err := cron.NewCartAbandonmentJob(cron.CartAbandonmentJobParams{
		Logger:      logg,
		DB:          dbClient,
		CartReader:  cart.NewRepository(gormDB),
		Outbox:      outboxService,
		OutboxRepo:  outboxRepo,
		NudgeAfter:  cfg.Marketing.CartNudgeAfter,
		ExpireAfter: cfg.Marketing.CartExpireAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build cart abandonment job", err)
		os.Exit(1)
	}

	browseJob, err := cron.NewBrowseAbandonmentJob(cron.BrowseAbandonmentJobParams{
		Logger:       logg,
		DB:           dbClient,
		BrowseReader: analytics.NewBrowseRepository(gormDB),
		CartActivity: cart.NewRepository(gormDB),
		Outbox:       outboxService,
		OutboxRepo:   outboxRepo,
		NudgeAfter:   cfg.Marketing.BrowseNudgeAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build browse abandonment job", err)
		os.Exit(1)
	}

	quoteJob, err := cron.NewQuoteExpiryJob(cron.QuoteExpiryJobParams{
		Logger:        logg,
		DB:            dbClient,
		QuoteReader:   quotes.NewRepository(gormDB),
		Outbox:        outboxService,
		OutboxRepo:    outboxRepo,
		WarningWindow: cfg.Marketing.QuoteExpiryWarning,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build quote expiry job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  int(cfg.Eventing.OutboxRetention.Hours() / 24),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build outbox retention job", err)
		os.Exit(1)
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewCleanupRepository(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build notification cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(cartJob, browseJob, quoteJob, retentionJob, cleanupJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Marketing.CronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
