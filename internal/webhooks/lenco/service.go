package lencowebhook

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/internal/imports"
	"github.com/angelmondragon/zedmarket-backend/internal/subscriptions"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

// Acknowledgement messages returned to the provider.
const (
	MessageReceived     = "Event received"
	MessageSubscription = "Subscription event processed"
	MessageImport       = "Market import event processed"
)

// IdempotencyScope namespaces the guard keys in Redis.
const IdempotencyScope = "lenco-webhook"

type subscriptionActivator interface {
	Activate(ctx context.Context, ref reference.Subscription, amount decimal.Decimal) (*subscriptions.Activation, error)
}

type importConfirmer interface {
	ConfirmPaid(ctx context.Context, ref reference.Import, payment imports.Payment) (*imports.Result, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type ServiceParams struct {
	Subscriptions subscriptionActivator
	Imports       importConfirmer
	// Guard is optional; without it every delivery reaches the mutators.
	Guard   eventGuard
	Metrics *metrics.WebhookMetrics
	// DefaultCurrency fills in payloads that omit the currency.
	DefaultCurrency string
	Logger          *logger.Logger
}

// Service routes normalized events to the ledger mutators by reference kind.
type Service struct {
	subscriptions   subscriptionActivator
	imports         importConfirmer
	guard           eventGuard
	metrics         *metrics.WebhookMetrics
	defaultCurrency string
	logg            *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, errors.New("subscription service required")
	}
	if params.Imports == nil {
		return nil, errors.New("import service required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = "ZMW"
	}
	return &Service{
		subscriptions:   params.Subscriptions,
		imports:         params.Imports,
		guard:           params.Guard,
		metrics:         params.Metrics,
		defaultCurrency: currency,
		logg:            params.Logger,
	}, nil
}

// HandleEvent applies one delivery and returns the acknowledgement message.
// Unsupported types and unroutable references are acknowledged without any
// mutation. Only infrastructure failures are returned as errors.
func (s *Service) HandleEvent(ctx context.Context, event *Event) (string, error) {
	if event == nil || event.Type != TypeMobileMoney {
		s.metrics.Observe("", metrics.OutcomeIgnored)
		return MessageReceived, nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"reference": event.Reference, "status": event.Status})
	ref, err := reference.Parse(event.Reference)
	if err != nil {
		s.logg.Warn(ctx, "webhook reference not routable")
		s.metrics.Observe("", metrics.OutcomeIgnored)
		return MessageReceived, nil
	}

	switch r := ref.(type) {
	case reference.Subscription:
		return MessageSubscription, s.handleSubscription(ctx, r, event)
	case reference.Import:
		return MessageImport, s.handleImport(ctx, r, event)
	}
	s.metrics.Observe("", metrics.OutcomeIgnored)
	return MessageReceived, nil
}

func (s *Service) handleSubscription(ctx context.Context, ref reference.Subscription, event *Event) error {
	kind := string(reference.KindSubscription)
	switch event.Status {
	case StatusSuccessful:
	case StatusFailed:
		// A failed payment never downgrades the current subscription.
		s.logg.Info(ctx, "subscription payment failed")
		s.metrics.Observe(kind, metrics.OutcomeIgnored)
		return nil
	default:
		s.metrics.Observe(kind, metrics.OutcomeIgnored)
		return nil
	}

	return s.once(ctx, kind, event, func() error {
		_, err := s.subscriptions.Activate(ctx, ref, event.Amount)
		if errors.Is(err, subscriptions.ErrInvalidReference) {
			s.logg.Warn(ctx, "subscription reference does not name a known vendor")
			return errIgnored
		}
		return err
	})
}

func (s *Service) handleImport(ctx context.Context, ref reference.Import, event *Event) error {
	kind := string(reference.KindImport)
	if event.Status != StatusSuccessful {
		s.logg.Info(ctx, "market import payment not successful")
		s.metrics.Observe(kind, metrics.OutcomeIgnored)
		return nil
	}

	currency := event.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	return s.once(ctx, kind, event, func() error {
		_, err := s.imports.ConfirmPaid(ctx, ref, imports.Payment{
			Amount:   event.Amount,
			Currency: currency,
			Payload:  event.Payload,
		})
		if errors.Is(err, imports.ErrInvalidReference) {
			s.logg.Warn(ctx, "import reference does not name a known store or product")
			return errIgnored
		}
		return err
	})
}

var errIgnored = errors.New("event ignored")

// once runs apply unless the guard has already seen this reference and
// status. A failed apply releases the guard key so redelivery is retried.
func (s *Service) once(ctx context.Context, kind string, event *Event, apply func() error) error {
	key := eventKey(event.Reference, event.Status)
	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, key)
		if err != nil {
			// Redis is an optimization; the database still deduplicates.
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "webhook idempotency guard unavailable")
		} else if seen {
			s.logg.Info(ctx, "duplicate webhook delivery skipped")
			s.metrics.Observe(kind, metrics.OutcomeDuplicate)
			return nil
		}
	}

	err := apply()
	switch {
	case err == nil:
		s.metrics.Observe(kind, metrics.OutcomeProcessed)
		return nil
	case errors.Is(err, errIgnored):
		s.metrics.Observe(kind, metrics.OutcomeIgnored)
		return nil
	}

	s.metrics.Observe(kind, metrics.OutcomeFailed)
	if s.guard != nil {
		if delErr := s.guard.Delete(ctx, key); delErr != nil {
			s.logg.Error(ctx, "release webhook idempotency key", delErr)
		}
	}
	return err
}
