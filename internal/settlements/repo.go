package settlements

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	"github.com/angelmondragon/zedmarket-backend/pkg/pagination"
)

// Repository reads settlement rows. Writes belong to the payout process.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type statusTotal struct {
	Status enums.SettlementStatus
	Total  decimal.Decimal
}

// TotalsByStatus sums settlement amounts per status for the store.
func (r *Repository) TotalsByStatus(ctx context.Context, storeID uuid.UUID) (map[enums.SettlementStatus]decimal.Decimal, error) {
	var rows []statusTotal
	err := r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("store_id = ?", storeID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[enums.SettlementStatus]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Status] = row.Total
	}
	return totals, nil
}

// List returns settlements newest first, starting after the cursor.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Settlement, error) {
	var rows []models.Settlement
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Scopes(pagination.After(cursor)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
