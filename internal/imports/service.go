package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

// ErrInvalidReference is returned when the reference ids are not UUIDs.
var ErrInvalidReference = errors.New("import reference ids are not valid")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Payment is the provider-confirmed part of an import webhook.
type Payment struct {
	Amount   decimal.Decimal
	Currency string
	Payload  json.RawMessage
}

// Result reports what a confirmation did.
type Result struct {
	Reference   string
	Duplicate   bool
	Transaction *models.Transaction
	Outcome     *models.ImportOutcome
}

type ServiceParams struct {
	DB       txRunner
	Ledger   ledger.Service
	Products *products.Repository
	Outcomes *OutcomeRepository
	Outbox   outbox.Emitter
	Markup   decimal.Decimal
	Logger   *logger.Logger
}

type Service struct {
	db       txRunner
	ledger   ledger.Service
	products *products.Repository
	outcomes *OutcomeRepository
	outbox   outbox.Emitter
	markup   decimal.Decimal
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger service required")
	}
	if params.Products == nil {
		return nil, errors.New("product repository required")
	}
	if params.Outcomes == nil {
		return nil, errors.New("outcome repository required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter required")
	}
	if !params.Markup.IsPositive() {
		return nil, errors.New("markup must be positive")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Service{
		db:       params.DB,
		ledger:   params.Ledger,
		products: params.Products,
		outcomes: params.Outcomes,
		outbox:   params.Outbox,
		markup:   params.Markup,
		logg:     params.Logger,
	}, nil
}

// ConfirmPaid records the completed transaction for a successful import
// payment and clones the supplier product. Only the delivery that completes
// the transaction clones; later deliveries report Duplicate. Clone failures
// are recorded as outcomes and never returned as errors.
func (s *Service) ConfirmPaid(ctx context.Context, ref reference.Import, payment Payment) (*Result, error) {
	storeID, productID, err := parseIDs(ref)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithReference(s.logg.WithStoreID(ctx, storeID.String()), ref.String())

	var (
		txn *models.Transaction
		won bool
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var confirmErr error
		txn, won, confirmErr = s.ledger.WithTx(tx).ConfirmImport(ctx, ledger.RecordInput{
			StoreID:   storeID,
			Reference: ref.String(),
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Metadata:  payment.Payload,
		})
		return confirmErr
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Reference: ref.String(), Transaction: txn, Duplicate: !won}
	if !won {
		s.logg.Info(ctx, "import already confirmed, skipping clone")
		return result, nil
	}

	result.Outcome = s.Clone(ctx, ref.String(), storeID, productID)
	return result, nil
}

// Clone copies the supplier product into storeID in its own transaction and
// records the outcome. It never returns an error: a failed clone is stored
// as reconciliation_needed together with an outbox event.
func (s *Service) Clone(ctx context.Context, ref string, storeID, supplierProductID uuid.UUID) *models.ImportOutcome {
	outcome := &models.ImportOutcome{
		ID:                uuid.New(),
		Reference:         ref,
		StoreID:           storeID,
		SupplierProductID: supplierProductID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		productID, err := s.clone(ctx, tx, storeID, supplierProductID)
		if err != nil {
			return err
		}
		outcome.ProductID = &productID
		outcome.Status = enums.ImportOutcomeImported
		if err := s.outcomes.WithTx(tx).Upsert(ctx, outcome); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventImportCompleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         &outbox.ActorRef{StoreID: &storeID, Source: "import"},
			Data: outbox.ImportResult{
				Reference:         ref,
				StoreID:           storeID,
				SupplierProductID: supplierProductID,
				ProductID:         &productID,
			},
		})
	})
	if err == nil {
		s.logg.Info(s.logg.WithField(ctx, "product_id", outcome.ProductID.String()), "supplier product imported")
		return outcome
	}

	s.logg.Error(ctx, "supplier product import failed, flagged for reconciliation", err)
	outcome, _ = s.flag(ctx, ref, storeID, supplierProductID, stepOf(err), err, true)
	return outcome
}

func (s *Service) clone(ctx context.Context, tx *gorm.DB, storeID, supplierProductID uuid.UUID) (uuid.UUID, error) {
	repo := s.products.WithTx(tx)
	supplier, err := repo.FindSupplierProduct(ctx, supplierProductID)
	if err != nil {
		return uuid.Nil, &stepError{step: enums.ImportStepLookup, err: err}
	}
	clone, err := products.BuildImportClone(*supplier, storeID, s.markup)
	if err != nil {
		return uuid.Nil, &stepError{step: enums.ImportStepPricing, err: err}
	}
	if err := repo.CreateWithImages(ctx, &clone); err != nil {
		return uuid.Nil, err
	}
	return clone.ID, nil
}

// FlagMissing records a reconciliation_needed outcome for a confirmed import
// that never produced one. It reports whether a new outcome was written.
func (s *Service) FlagMissing(ctx context.Context, ref string, storeID, supplierProductID uuid.UUID, cause error) (bool, error) {
	_, err := s.flag(ctx, ref, storeID, supplierProductID, enums.ImportStepUnknown, cause, false)
	if errors.Is(err, errOutcomeExists) {
		return false, nil
	}
	return err == nil, err
}

var errOutcomeExists = errors.New("import outcome already recorded")

func (s *Service) flag(ctx context.Context, ref string, storeID, supplierProductID uuid.UUID, step enums.ImportStep, cause error, replace bool) (*models.ImportOutcome, error) {
	msg := cause.Error()
	outcome := &models.ImportOutcome{
		ID:                uuid.New(),
		Reference:         ref,
		StoreID:           storeID,
		SupplierProductID: supplierProductID,
		Status:            enums.ImportOutcomeReconciliationNeeded,
		FailedStep:        &step,
		Error:             &msg,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.outcomes.WithTx(tx)
		if replace {
			if err := repo.Upsert(ctx, outcome); err != nil {
				return err
			}
		} else {
			inserted, err := repo.InsertIfAbsent(ctx, outcome)
			if err != nil {
				return err
			}
			if !inserted {
				return errOutcomeExists
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventImportReconciliationNeeded,
			AggregateType: enums.AggregateProduct,
			AggregateID:   supplierProductID,
			Actor:         &outbox.ActorRef{StoreID: &storeID, Source: "import"},
			Data: outbox.ImportResult{
				Reference:         ref,
				StoreID:           storeID,
				SupplierProductID: supplierProductID,
				FailedStep:        string(step),
				Error:             msg,
			},
		})
	})
	if err != nil && !errors.Is(err, errOutcomeExists) {
		s.logg.Error(s.logg.WithField(ctx, "failed_step", string(step)), "recording import outcome failed", err)
	}
	return outcome, err
}

type stepError struct {
	step enums.ImportStep
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("%s: %v", e.step, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

func stepOf(err error) enums.ImportStep {
	var se *stepError
	if errors.As(err, &se) {
		return se.step
	}
	var pe *products.StepError
	if errors.As(err, &pe) {
		if pe.Step == products.StepImages {
			return enums.ImportStepImages
		}
		return enums.ImportStepProduct
	}
	return enums.ImportStepUnknown
}

func parseIDs(ref reference.Import) (uuid.UUID, uuid.UUID, error) {
	storeID, err := uuid.Parse(ref.StoreID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: store id %q", ErrInvalidReference, ref.StoreID)
	}
	productID, err := uuid.Parse(ref.ProductID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: product id %q", ErrInvalidReference, ref.ProductID)
	}
	return storeID, productID, nil
}
