package settlements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/pagination"
)

type storeOwnership interface {
	FindOwned(ctx context.Context, vendorID, storeID uuid.UUID) (*models.Store, error)
}

// Stats is the per-store fund position. Frozen includes disputed funds.
type Stats struct {
	Pending decimal.Decimal `json:"pending"`
	Cleared decimal.Decimal `json:"cleared"`
	Frozen  decimal.Decimal `json:"frozen"`
}

// Item is a settlement row with its presentation status.
type Item struct {
	ID          uuid.UUID              `json:"id"`
	OrderID     *uuid.UUID             `json:"orderId,omitempty"`
	Amount      decimal.Decimal        `json:"amount"`
	Status      enums.SettlementStatus `json:"status"`
	Friendly    FriendlyStatus         `json:"friendly"`
	ReleaseDate *time.Time             `json:"releaseDate,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ListResult is one page of settlements.
type ListResult struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type Service struct {
	repo   *Repository
	stores storeOwnership
}

func NewService(repo *Repository, stores storeOwnership) (*Service, error) {
	if repo == nil {
		return nil, errors.New("settlement repository required")
	}
	if stores == nil {
		return nil, errors.New("store repository required")
	}
	return &Service{repo: repo, stores: stores}, nil
}

// Stats aggregates the store's settlements into pending, cleared and on-hold
// buckets.
func (s *Service) Stats(ctx context.Context, vendorID, storeID uuid.UUID) (*Stats, error) {
	if _, err := s.stores.FindOwned(ctx, vendorID, storeID); err != nil {
		return nil, err
	}
	totals, err := s.repo.TotalsByStatus(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate settlements")
	}
	return &Stats{
		Pending: totals[enums.SettlementStatusPending].Round(2),
		Cleared: totals[enums.SettlementStatusCleared].Round(2),
		Frozen:  totals[enums.SettlementStatusFrozen].Add(totals[enums.SettlementStatusDisputed]).Round(2),
	}, nil
}

// List returns a page of the store's settlements, newest first.
func (s *Service) List(ctx context.Context, vendorID, storeID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if _, err := s.stores.FindOwned(ctx, vendorID, storeID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, storeID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list settlements")
	}

	page, next := pagination.Page(rows, params.Limit, func(row models.Settlement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	items := make([]Item, 0, len(page))
	for _, row := range page {
		items = append(items, Item{
			ID:          row.ID,
			OrderID:     row.OrderID,
			Amount:      row.Amount,
			Status:      row.Status,
			Friendly:    Friendly(row.Status),
			ReleaseDate: row.ReleaseDate,
			CreatedAt:   row.CreatedAt,
		})
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}
