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

	"github.com/angelmondragon/zedmarket-backend/api/routes"
	"github.com/angelmondragon/zedmarket-backend/internal/credits"
	"github.com/angelmondragon/zedmarket-backend/internal/imports"
	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/payments"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/internal/settlements"
	"github.com/angelmondragon/zedmarket-backend/internal/stores"
	"github.com/angelmondragon/zedmarket-backend/internal/subscriptions"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	lencowebhook "github.com/angelmondragon/zedmarket-backend/internal/webhooks/lenco"
	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	"github.com/angelmondragon/zedmarket-backend/pkg/db"
	"github.com/angelmondragon/zedmarket-backend/pkg/lenco"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
	"github.com/angelmondragon/zedmarket-backend/pkg/migrate"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/redis"
)

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

	lencoClient, err := lenco.NewClient(cfg.Lenco.SecretKey,
		lenco.WithBaseURL(cfg.Lenco.BaseURL),
		lenco.WithTimeout(cfg.Lenco.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create lenco client", err)
		os.Exit(1)
	}

	deps, err := wire(cfg, logg, dbClient, redisClient, lencoClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func wire(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, collector payments.Collector) (routes.Dependencies, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	vendorRepo := vendors.NewRepository(conn)
	storeRepo := stores.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	importSvc, err := imports.NewService(imports.ServiceParams{
		DB:       dbClient,
		Ledger:   ledgerSvc,
		Products: productRepo,
		Outcomes: imports.NewOutcomeRepository(conn),
		Outbox:   emitter,
		Markup:   cfg.Imports.Markup,
		Logger:   logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	subscriptionSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		DB:      dbClient,
		Repo:    subscriptions.NewRepository(conn),
		Vendors: vendorRepo,
		Outbox:  emitter,
		Logger:  logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	creditSvc, err := credits.NewService(credits.ServiceParams{
		DB:          dbClient,
		Repo:        credits.NewRepository(conn),
		Ledger:      ledgerSvc,
		Vendors:     vendorRepo,
		Stores:      storeRepo,
		Outbox:      emitter,
		Importer:    importSvc,
		Quota:       cfg.Imports.FreeCreditQuota,
		PromoWindow: cfg.Imports.PromoWindow,
		Logger:      logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		DB:        dbClient,
		Collector: collector,
		Ledger:    ledgerSvc,
		Products:  productRepo,
		Stores:    storeRepo,
		Vendors:   vendorRepo,
		Credits:   creditSvc,
		Outbox:    emitter,
		Logger:    logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	settlementSvc, err := settlements.NewService(settlements.NewRepository(conn), storeRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)
	guard, err := lencowebhook.NewIdempotencyGuard(redisClient, cfg.Lenco.WebhookDedupeTTL, lencowebhook.IdempotencyScope)
	if err != nil {
		return routes.Dependencies{}, err
	}
	webhookSvc, err := lencowebhook.NewService(lencowebhook.ServiceParams{
		Subscriptions:   subscriptionSvc,
		Imports:         importSvc,
		Guard:           guard,
		Metrics:         webhookMetrics,
		DefaultCurrency: cfg.Lenco.Currency,
		Logger:          logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Limiter:        redisClient,
		Gatherer:       prometheus.DefaultGatherer,
		WebhookMetrics: webhookMetrics,
		Payments:       paymentSvc,
		Credits:        creditSvc,
		Subscriptions:  subscriptionSvc,
		Settlements:    settlementSvc,
		LencoWebhook:   webhookSvc,
	}, nil
}
