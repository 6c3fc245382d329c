package credits

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/stores"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/db"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

const (
	reasonVendorNotFound   = "Vendor not found"
	reasonPromotionExpired = "Promotion expired"
	reasonCreditsExhausted = "Credits exhausted"

	currency = "ZMW"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cloner interface {
	Clone(ctx context.Context, ref string, storeID, supplierProductID uuid.UUID) *models.ImportOutcome
}

// Stats describes a vendor's free import allowance.
type Stats struct {
	Eligible  bool       `json:"isEligible"`
	Remaining int        `json:"remaining"`
	Used      int        `json:"used"`
	Quota     int        `json:"quota"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Claim is the result of spending one free credit.
type Claim struct {
	Reference   string                `json:"reference"`
	Slot        int                   `json:"slot"`
	Transaction *models.Transaction   `json:"transaction"`
	Outcome     *models.ImportOutcome `json:"outcome,omitempty"`
}

type ServiceParams struct {
	DB          txRunner
	Repo        *Repository
	Ledger      ledger.Service
	Vendors     *vendors.Repository
	Stores      *stores.Repository
	Outbox      outbox.Emitter
	Importer    cloner
	Quota       int
	PromoWindow time.Duration
	Logger      *logger.Logger
	Now         func() time.Time
}

type Service struct {
	db          txRunner
	repo        *Repository
	ledger      ledger.Service
	vendors     *vendors.Repository
	stores      *stores.Repository
	outbox      outbox.Emitter
	importer    cloner
	quota       int
	promoWindow time.Duration
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client required")
	}
	if params.Repo == nil {
		return nil, errors.New("credit repository required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger service required")
	}
	if params.Vendors == nil {
		return nil, errors.New("vendor repository required")
	}
	if params.Stores == nil {
		return nil, errors.New("store repository required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter required")
	}
	if params.Importer == nil {
		return nil, errors.New("importer required")
	}
	if params.Quota < 0 {
		return nil, errors.New("quota must not be negative")
	}
	if params.PromoWindow <= 0 {
		return nil, errors.New("promo window must be positive")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:          params.DB,
		repo:        params.Repo,
		ledger:      params.Ledger,
		vendors:     params.Vendors,
		stores:      params.Stores,
		outbox:      params.Outbox,
		importer:    params.Importer,
		quota:       params.Quota,
		promoWindow: params.PromoWindow,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// Stats reports how many free imports the vendor has left. A missing vendor
// is an ineligible result, not an error.
func (s *Service) Stats(ctx context.Context, vendorID uuid.UUID) (*Stats, error) {
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if errors.Is(err, vendors.ErrNotFound) {
		return &Stats{Quota: s.quota, Reason: reasonVendorNotFound}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	used, err := s.ledger.UsedImportCredits(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count import credits")
	}
	return s.evaluate(vendor, int(used)), nil
}

func (s *Service) evaluate(vendor *models.Vendor, used int) *Stats {
	expiresAt := vendor.CreatedAt.Add(s.promoWindow).UTC()
	remaining := s.quota - used
	if remaining < 0 {
		remaining = 0
	}
	stats := &Stats{
		Remaining: remaining,
		Used:      used,
		Quota:     s.quota,
		ExpiresAt: &expiresAt,
	}
	switch {
	case s.now().After(expiresAt):
		stats.Reason = reasonPromotionExpired
	case remaining == 0:
		stats.Reason = reasonCreditsExhausted
	default:
		stats.Eligible = true
	}
	return stats
}

// Claim spends one free credit on an import of supplierProductID into
// storeID. The slot row, the zero-amount completed transaction and the outbox
// event commit together; the clone runs afterwards like a paid import.
func (s *Service) Claim(ctx context.Context, vendorID, storeID, supplierProductID uuid.UUID) (*Claim, error) {
	ctx = s.logg.WithStoreID(s.logg.WithVendorID(ctx, vendorID.String()), storeID.String())
	ref := reference.NewImport(storeID.String(), supplierProductID.String(), s.now())
	claim := &Claim{Reference: ref.String()}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		vendor, err := s.vendors.WithTx(tx).FindByID(ctx, vendorID)
		if errors.Is(err, vendors.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
		}
		if _, err := s.stores.WithTx(tx).FindOwned(ctx, vendorID, storeID); err != nil {
			return err
		}

		ledgerTx := s.ledger.WithTx(tx)
		used, err := ledgerTx.UsedImportCredits(ctx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count import credits")
		}
		stats := s.evaluate(vendor, int(used))
		if stats.Reason == reasonPromotionExpired {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "free import promotion expired")
		}

		maxSlot, err := s.repo.WithTx(tx).MaxSlot(ctx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load claimed slots")
		}
		slot := int(used)
		if maxSlot > slot {
			slot = maxSlot
		}
		slot++
		if slot > s.quota {
			return errExhausted()
		}

		metadata, err := json.Marshal(map[string]any{
			"product_id":  supplierProductID.String(),
			"provider":    enums.ProviderFreeCredit.String(),
			"credit_used": true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode metadata")
		}
		txn, won, err := ledgerTx.ConfirmImport(ctx, ledger.RecordInput{
			StoreID:   storeID,
			Reference: ref.String(),
			Amount:    decimal.Zero,
			Currency:  currency,
			Metadata:  metadata,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record free import")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "import already recorded")
		}

		err = s.repo.WithTx(tx).Insert(ctx, &models.ImportCreditClaim{
			ID:            uuid.New(),
			VendorID:      vendorID,
			Slot:          slot,
			TransactionID: txn.ID,
		})
		if db.IsUniqueViolation(err, "") || db.IsCheckViolation(err) {
			return errExhausted()
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert credit claim")
		}

		claim.Slot = slot
		claim.Transaction = txn
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFreeCreditClaimed,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{VendorID: &vendorID, StoreID: &storeID, Source: enums.ProviderFreeCredit.String()},
			Data: outbox.FreeCreditClaimed{
				VendorID:  vendorID,
				StoreID:   storeID,
				Reference: ref.String(),
				Slot:      slot,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "slot", claim.Slot), "free import credit claimed")
	claim.Outcome = s.importer.Clone(ctx, claim.Reference, storeID, supplierProductID)
	return claim, nil
}

func errExhausted() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "free import credits exhausted")
}
