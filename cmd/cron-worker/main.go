package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/zedmarket-backend/internal/cron"
	"github.com/angelmondragon/zedmarket-backend/internal/imports"
	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/internal/subscriptions"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	"github.com/angelmondragon/zedmarket-backend/pkg/db"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
	"github.com/angelmondragon/zedmarket-backend/pkg/migrate"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"interval":    cfg.Cron.Interval.String(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceKind, lockEnv(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("create cron lock: %w", err)
	}
	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	logg.Info(ctx, "starting cron worker")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return service.Run(gctx) })
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg)
	})
	return g.Wait()
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)
	ledgerRepo := ledger.NewRepository(conn)

	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return nil, err
	}
	importSvc, err := imports.NewService(imports.ServiceParams{
		DB:       dbClient,
		Ledger:   ledgerSvc,
		Products: products.NewRepository(conn),
		Outcomes: imports.NewOutcomeRepository(conn),
		Outbox:   emitter,
		Markup:   cfg.Imports.Markup,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	subscriptionSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		DB:      dbClient,
		Repo:    subscriptions.NewRepository(conn),
		Vendors: vendors.NewRepository(conn),
		Outbox:  emitter,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	trialJob, err := cron.NewTrialExpiryJob(cron.TrialExpiryJobParams{
		Logger:        logg,
		Subscriptions: subscriptionSvc,
	})
	if err != nil {
		return nil, err
	}
	reconcileJob, err := cron.NewImportReconcileJob(cron.ImportReconcileJobParams{
		Logger:  logg,
		Ledger:  ledgerRepo,
		Imports: importSvc,
		Grace:   cfg.Cron.ImportGracePeriod,
	})
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(trialJob, reconcileJob, retentionJob)
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
