package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/credits"
	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/internal/stores"
	"github.com/angelmondragon/zedmarket-backend/internal/subscriptions"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/lenco"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

const (
	currency = "ZMW"

	msgImportInitiated       = "Payment initiated. Please check your phone."
	msgSubscriptionInitiated = "Subscription payment initiated. Check your phone."
	msgOutcomeUnknown        = "We could not confirm the payment request. If you receive a prompt on your phone, approve it and the payment will be applied automatically."
	msgFreeCreditApplied     = "Free import credit applied!"
	msgNotEligible           = "You are not eligible for free import credits."
	msgServiceUnavailable    = "Payment service unavailable"
)

// Collector starts mobile-money collections.
type Collector interface {
	CollectMobileMoney(ctx context.Context, req lenco.CollectionRequest) (*lenco.CollectionResponse, error)
}

type creditClaimer interface {
	Claim(ctx context.Context, vendorID, storeID, supplierProductID uuid.UUID) (*credits.Claim, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result is what the vendor sees after asking for a payment. Provider
// refusals are reported here instead of as errors.
type Result struct {
	Success bool   `json:"success"`
	Pending bool   `json:"pending"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ImportRequest asks to buy supplierProductID into storeID.
type ImportRequest struct {
	VendorID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Provider  enums.MobileMoneyProvider
	Phone     string
	Amount    decimal.Decimal
}

// SubscriptionRequest asks to pay for a premium plan.
type SubscriptionRequest struct {
	VendorID uuid.UUID
	Plan     enums.SubscriptionPlan
	Provider enums.MobileMoneyProvider
	Phone    string
}

type ServiceParams struct {
	DB        txRunner
	Collector Collector
	Ledger    ledger.Service
	Products  *products.Repository
	Stores    *stores.Repository
	Vendors   *vendors.Repository
	Credits   creditClaimer
	Outbox    outbox.Emitter
	Logger    *logger.Logger
	Now       func() time.Time
}

type Service struct {
	db        txRunner
	collector Collector
	ledger    ledger.Service
	products  *products.Repository
	stores    *stores.Repository
	vendors   *vendors.Repository
	credits   creditClaimer
	outbox    outbox.Emitter
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client required")
	}
	if params.Collector == nil {
		return nil, errors.New("collector required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger service required")
	}
	if params.Products == nil {
		return nil, errors.New("product repository required")
	}
	if params.Stores == nil {
		return nil, errors.New("store repository required")
	}
	if params.Vendors == nil {
		return nil, errors.New("vendor repository required")
	}
	if params.Credits == nil {
		return nil, errors.New("credit service required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:        params.DB,
		collector: params.Collector,
		ledger:    params.Ledger,
		products:  params.Products,
		stores:    params.Stores,
		vendors:   params.Vendors,
		credits:   params.Credits,
		outbox:    params.Outbox,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// InitiateImport starts the payment for a marketplace import. The amount is
// the supplier's listed price; a client amount that disagrees is rejected.
func (s *Service) InitiateImport(ctx context.Context, req ImportRequest) (*Result, error) {
	ctx = s.logg.WithStoreID(s.logg.WithVendorID(ctx, req.VendorID.String()), req.StoreID.String())

	if _, err := s.stores.FindOwned(ctx, req.VendorID, req.StoreID); err != nil {
		return nil, err
	}
	supplier, err := s.products.FindSupplierProduct(ctx, req.ProductID)
	if errors.Is(err, products.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !supplier.IsDropshippable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for import")
	}
	if supplier.StoreID == req.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot import a product from your own store")
	}

	if req.Provider == enums.ProviderFreeCredit {
		return s.claimFreeCredit(ctx, req)
	}
	if !req.Provider.IsRail() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment provider")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}

	amount := supplier.Price.Round(2)
	if !req.Amount.IsZero() && !req.Amount.Round(2).Equal(amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match product price").
			WithDetails(map[string]string{"expected": amount.StringFixed(2)})
	}

	ref := reference.NewImport(req.StoreID.String(), req.ProductID.String(), s.now())
	ctx = s.logg.WithReference(ctx, ref.String())

	resp, collectErr := s.collect(ctx, ref.String(), amount, req.Provider, req.Phone)
	unknown := errors.Is(collectErr, lenco.ErrUnknownOutcome)
	if collectErr != nil && !unknown {
		return refusal(collectErr), nil
	}
	if resp != nil && !resp.Status {
		return declined(resp), nil
	}

	metadata := map[string]any{
		"product_id": req.ProductID.String(),
		"provider":   req.Provider.String(),
		"mobile":     req.Phone,
	}
	providerID := ""
	if resp != nil {
		providerID = resp.Data.ID
	}
	if unknown {
		metadata["outcome_unknown"] = true
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode metadata")
	}

	storeID := req.StoreID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.ledger.WithTx(tx).RecordPending(ctx, ledger.RecordInput{
			StoreID:   req.StoreID,
			Reference: ref.String(),
			Amount:    amount,
			Currency:  currency,
			Type:      enums.TransactionTypeMarketImport,
			Metadata:  raw,
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventImportPaymentInitiated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{VendorID: &req.VendorID, StoreID: &storeID, Source: "payments"},
			Data: outbox.PaymentInitiated{
				Reference:      ref.String(),
				StoreID:        &storeID,
				VendorID:       req.VendorID,
				Amount:         amount,
				Currency:       currency,
				Provider:       req.Provider.String(),
				ProviderID:     providerID,
				OutcomeUnknown: unknown,
			},
		})
	})
	if err != nil {
		// The provider already has the request; confirmation inserts the row
		// when no pending one exists.
		s.logg.Error(ctx, "recording pending import transaction failed", err)
	}

	if unknown {
		s.logg.Warn(ctx, "import collection outcome unknown")
		return &Result{Pending: true, Message: msgOutcomeUnknown, Data: map[string]string{"reference": ref.String()}}, nil
	}
	s.logg.Info(ctx, "import payment initiated")
	return &Result{Success: true, Pending: true, Message: msgImportInitiated, Data: resp.Data}, nil
}

func (s *Service) claimFreeCredit(ctx context.Context, req ImportRequest) (*Result, error) {
	claim, err := s.credits.Claim(ctx, req.VendorID, req.StoreID, req.ProductID)
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) || pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		return &Result{Message: msgNotEligible}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Success: true,
		Message: msgFreeCreditApplied,
		Data: map[string]any{
			"reference": claim.Reference,
			"status":    enums.TransactionStatusCompleted,
			"slot":      claim.Slot,
			"outcome":   claim.Outcome,
		},
	}, nil
}

// InitiateSubscription starts the payment for a premium plan.
func (s *Service) InitiateSubscription(ctx context.Context, req SubscriptionRequest) (*Result, error) {
	ctx = s.logg.WithVendorID(ctx, req.VendorID.String())

	amount, ok := subscriptions.PlanPrice(req.Plan)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown subscription plan")
	}
	if !req.Provider.IsRail() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment provider")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}
	if _, err := s.vendors.FindByID(ctx, req.VendorID); err != nil {
		if errors.Is(err, vendors.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}

	ref := reference.NewSubscription(req.VendorID.String(), s.now())
	ctx = s.logg.WithReference(ctx, ref.String())

	resp, collectErr := s.collect(ctx, ref.String(), amount, req.Provider, req.Phone)
	unknown := errors.Is(collectErr, lenco.ErrUnknownOutcome)
	if collectErr != nil && !unknown {
		return refusal(collectErr), nil
	}
	if resp != nil && !resp.Status {
		return declined(resp), nil
	}

	providerID := ""
	if resp != nil {
		providerID = resp.Data.ID
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionPaymentInitiated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   req.VendorID,
			Actor:         &outbox.ActorRef{VendorID: &req.VendorID, Source: "payments"},
			Data: outbox.PaymentInitiated{
				Reference:      ref.String(),
				VendorID:       req.VendorID,
				Amount:         amount,
				Currency:       currency,
				Provider:       req.Provider.String(),
				ProviderID:     providerID,
				OutcomeUnknown: unknown,
			},
		})
	})
	if err != nil {
		s.logg.Error(ctx, "recording subscription payment event failed", err)
	}

	if unknown {
		s.logg.Warn(ctx, "subscription collection outcome unknown")
		return &Result{Pending: true, Message: msgOutcomeUnknown, Data: map[string]string{"reference": ref.String()}}, nil
	}
	s.logg.Info(ctx, "subscription payment initiated")
	return &Result{Success: true, Pending: true, Message: msgSubscriptionInitiated, Data: resp.Data}, nil
}

func (s *Service) collect(ctx context.Context, ref string, amount decimal.Decimal, provider enums.MobileMoneyProvider, phone string) (*lenco.CollectionResponse, error) {
	resp, err := s.collector.CollectMobileMoney(ctx, lenco.CollectionRequest{
		Amount:    amount,
		Currency:  currency,
		Operator:  provider.String(),
		Phone:     strings.TrimSpace(phone),
		Reference: ref,
	})
	if err != nil {
		if !errors.Is(err, lenco.ErrUnknownOutcome) {
			s.logg.Error(ctx, "mobile money collection failed", err)
		}
		return nil, err
	}
	return resp, nil
}

func refusal(err error) *Result {
	var rejected *lenco.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return &Result{Message: rejected.Message}
	}
	return &Result{Message: msgServiceUnavailable}
}

func declined(resp *lenco.CollectionResponse) *Result {
	if resp.Data.ReasonForFailure != "" {
		return &Result{Message: FailureMessage(resp.Data.ReasonForFailure)}
	}
	msg := strings.TrimSpace(resp.Message)
	if msg == "" {
		msg = "Payment initiation failed"
	}
	return &Result{Message: msg}
}
