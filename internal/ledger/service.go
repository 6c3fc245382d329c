package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Service defines the ledger writes driven by payment initiation and
// provider confirmation.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordPending(ctx context.Context, input RecordInput) (*models.Transaction, error)
	ConfirmImport(ctx context.Context, input RecordInput) (*models.Transaction, bool, error)
	UsedImportCredits(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the data a ledger transaction requires.
type RecordInput struct {
	StoreID   uuid.UUID
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Type      enums.TransactionType
	Metadata  json.RawMessage
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordPending(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	txn, err := input.toModel(enums.TransactionStatusPending)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ConfirmImport moves the import identified by the reference to completed. The
// boolean is true only for the single call that performed the transition, so
// duplicate deliveries never trigger a second clone.
func (s *service) ConfirmImport(ctx context.Context, input RecordInput) (*models.Transaction, bool, error) {
	input.Type = enums.TransactionTypeMarketImport
	txn, err := input.toModel(enums.TransactionStatusCompleted)
	if err != nil {
		return nil, false, err
	}

	won, err := s.repo.CompletePending(ctx, txn)
	if err != nil {
		return nil, false, fmt.Errorf("complete pending transaction: %w", err)
	}
	if !won {
		won, err = s.repo.InsertIfAbsent(ctx, txn)
		if err != nil {
			return nil, false, fmt.Errorf("insert completed transaction: %w", err)
		}
	}

	stored, err := s.repo.FindByReference(ctx, txn.Reference)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("transaction %s missing after confirmation", txn.Reference)
	}
	return stored, won, nil
}

func (s *service) UsedImportCredits(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	if vendorID == uuid.Nil {
		return 0, fmt.Errorf("vendor id is required")
	}
	return s.repo.CountActiveImportsForVendor(ctx, vendorID)
}

func (in RecordInput) toModel(status enums.TransactionStatus) (*models.Transaction, error) {
	if in.StoreID == uuid.Nil {
		return nil, fmt.Errorf("store id is required")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return nil, fmt.Errorf("reference is required")
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}
	if in.Type == "" {
		return nil, fmt.Errorf("transaction type is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}
	metadata := in.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return &models.Transaction{
		ID:        uuid.New(),
		StoreID:   in.StoreID,
		Reference: in.Reference,
		Amount:    in.Amount.Round(2),
		Currency:  currency,
		Status:    status,
		Type:      in.Type,
		Metadata:  metadata,
	}, nil
}
