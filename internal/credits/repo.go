package credits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
)

// Repository persists free import credit claims.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert stores a claim. Unique (vendor_id, slot) and check violations are
// returned untouched so the caller can classify them.
func (r *Repository) Insert(ctx context.Context, claim *models.ImportCreditClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// MaxSlot returns the highest slot claimed by the vendor, or 0.
func (r *Repository) MaxSlot(ctx context.Context, vendorID uuid.UUID) (int, error) {
	var slot int
	err := r.db.WithContext(ctx).
		Model(&models.ImportCreditClaim{}).
		Where("vendor_id = ?", vendorID).
		Select("COALESCE(MAX(slot), 0)").
		Scan(&slot).Error
	return slot, err
}
