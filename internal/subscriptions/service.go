package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

// ErrInvalidReference is returned when the vendor id is not a UUID.
var ErrInvalidReference = errors.New("subscription reference vendor id is not valid")

// lifetimeEnd is the period end reported for lifetime-free vendors.
var lifetimeEnd = time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Activation reports the effect of a confirmed subscription payment.
type Activation struct {
	Found        bool
	Applied      bool
	Subscription *models.VendorSubscription
}

type ServiceParams struct {
	DB      txRunner
	Repo    *Repository
	Vendors *vendors.Repository
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Now     func() time.Time
}

type Service struct {
	db      txRunner
	repo    *Repository
	vendors *vendors.Repository
	outbox  outbox.Emitter
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client required")
	}
	if params.Repo == nil {
		return nil, errors.New("subscription repository required")
	}
	if params.Vendors == nil {
		return nil, errors.New("vendor repository required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		db:      params.DB,
		repo:    params.Repo,
		vendors: params.Vendors,
		outbox:  params.Outbox,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// Activate marks the vendor's subscription active after a successful
// payment. When the amount matches a plan price the plan and period end are
// updated as well. A missing row is reported, not created.
func (s *Service) Activate(ctx context.Context, ref reference.Subscription, amount decimal.Decimal) (*Activation, error) {
	vendorID, err := uuid.Parse(ref.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, ref.VendorID)
	}
	ctx = s.logg.WithReference(s.logg.WithVendorID(ctx, vendorID.String()), ref.String())

	result := &Activation{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.FindByVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		if sub == nil {
			return nil
		}
		result.Found = true

		updates := map[string]any{}
		plan, matched := PlanForAmount(amount)
		var periodEnd *time.Time
		if matched {
			end := extendPeriod(plan, sub.CurrentPeriodEnd, s.now())
			periodEnd = &end
			updates["plan_id"] = string(plan)
			updates["current_period_end"] = end
		}

		applied, err := repo.ApplyPayment(ctx, vendorID, ref.String(), updates)
		if err != nil {
			return err
		}
		result.Applied = applied
		if !applied {
			return nil
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionActivated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         &outbox.ActorRef{VendorID: &vendorID, Source: "lenco"},
			Data: outbox.SubscriptionActivated{
				VendorID:         vendorID,
				Reference:        ref.String(),
				PlanID:           string(plan),
				CurrentPeriodEnd: periodEnd,
			},
		}); err != nil {
			return err
		}

		result.Subscription, err = repo.FindByVendor(ctx, vendorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch {
	case !result.Found:
		s.logg.Warn(ctx, "subscription payment confirmed for vendor without subscription row")
	case !result.Applied:
		s.logg.Info(ctx, "subscription payment already applied")
	default:
		s.logg.Info(ctx, "subscription activated")
	}
	return result, nil
}

// Get returns the vendor's subscription. Lifetime-free vendors receive a
// synthetic active lifetime plan; vendors without a row get nil.
func (s *Service) Get(ctx context.Context, vendorID uuid.UUID) (*models.VendorSubscription, error) {
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if errors.Is(err, vendors.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	if vendor.IsLifetimeFree {
		end := lifetimeEnd
		return &models.VendorSubscription{
			ID:               uuid.Nil,
			VendorID:         vendorID,
			Status:           enums.SubscriptionStatusActive,
			PlanID:           string(enums.PlanLifetimePremium),
			CurrentPeriodEnd: &end,
			CreatedAt:        vendor.CreatedAt,
			UpdatedAt:        vendor.CreatedAt,
		}, nil
	}

	sub, err := s.repo.FindByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	return sub, nil
}

// HasAccess reports whether the vendor may use premium features.
func (s *Service) HasAccess(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	sub, err := s.Get(ctx, vendorID)
	if err != nil {
		return false, err
	}
	return GrantsAccess(sub, s.now()), nil
}

// GrantsAccess evaluates a subscription row at the given instant.
func GrantsAccess(sub *models.VendorSubscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Status == enums.SubscriptionStatusTrial {
		return sub.TrialEndsAt != nil && sub.TrialEndsAt.After(now)
	}
	return sub.Status.GrantsAccess()
}

// ExpireTrials closes trials whose end date has passed.
func (s *Service) ExpireTrials(ctx context.Context) (int64, error) {
	return s.repo.ExpireTrials(ctx, s.now())
}
