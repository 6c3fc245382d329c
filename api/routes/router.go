package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/zedmarket-backend/api/controllers"
	importcontrollers "github.com/angelmondragon/zedmarket-backend/api/controllers/imports"
	settlementcontrollers "github.com/angelmondragon/zedmarket-backend/api/controllers/settlements"
	subscriptioncontrollers "github.com/angelmondragon/zedmarket-backend/api/controllers/subscriptions"
	webhookcontrollers "github.com/angelmondragon/zedmarket-backend/api/controllers/webhooks"
	"github.com/angelmondragon/zedmarket-backend/api/middleware"
	"github.com/angelmondragon/zedmarket-backend/internal/credits"
	"github.com/angelmondragon/zedmarket-backend/internal/payments"
	"github.com/angelmondragon/zedmarket-backend/internal/settlements"
	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
	"github.com/angelmondragon/zedmarket-backend/pkg/pagination"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type PaymentService interface {
	InitiateImport(ctx context.Context, req payments.ImportRequest) (*payments.Result, error)
	InitiateSubscription(ctx context.Context, req payments.SubscriptionRequest) (*payments.Result, error)
}

type CreditService interface {
	Stats(ctx context.Context, vendorID uuid.UUID) (*credits.Stats, error)
}

type SubscriptionService interface {
	Get(ctx context.Context, vendorID uuid.UUID) (*models.VendorSubscription, error)
	HasAccess(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

type SettlementService interface {
	Stats(ctx context.Context, vendorID, storeID uuid.UUID) (*settlements.Stats, error)
	List(ctx context.Context, vendorID, storeID uuid.UUID, params pagination.Params) (*settlements.ListResult, error)
}

// Dependencies are the wired services behind the HTTP surface. A nil service
// makes its routes answer with an internal error.
type Dependencies struct {
	DB             controllers.Pinger
	Redis          controllers.Pinger
	Limiter        rateLimiter
	Gatherer       prometheus.Gatherer
	WebhookMetrics *metrics.WebhookMetrics
	Payments       PaymentService
	Credits        CreditService
	Subscriptions  SubscriptionService
	Settlements    SettlementService
	LencoWebhook   webhookcontrollers.LencoWebhookService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, readinessChecks(deps), logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/lenco", webhookcontrollers.LencoWebhook(deps.LencoWebhook, webhookcontrollers.LencoWebhookOptions{
			SecretKey:     cfg.Lenco.SecretKey,
			AllowUnsigned: cfg.Lenco.AllowUnsignedWebhooks && !cfg.App.IsProd(),
			Metrics:       deps.WebhookMetrics,
		}, logg))
	})

	paymentPolicy := middleware.NewRateLimitPolicy("payments", cfg.RateLimit.PaymentWindow, cfg.RateLimit.PaymentLimit)

	r.Route("/api/v1/vendor", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.RequirePaymentRole(logg),
				middleware.RateLimit(paymentPolicy, deps.Limiter, logg),
			)
			r.Post("/imports", importcontrollers.VendorImportInitiate(deps.Payments, logg))
			r.Post("/subscription/payments", subscriptioncontrollers.VendorSubscriptionPay(deps.Payments, logg))
		})

		r.Get("/imports/credits", importcontrollers.VendorImportCredits(deps.Credits, logg))
		r.Get("/subscription", subscriptioncontrollers.VendorSubscriptionFetch(deps.Subscriptions, logg))
		r.Get("/stores/{storeId}/settlements/stats", settlementcontrollers.VendorSettlementStats(deps.Settlements, logg))
		r.Get("/stores/{storeId}/settlements", settlementcontrollers.VendorSettlementList(deps.Settlements, logg))
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
