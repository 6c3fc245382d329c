package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Repository persists vendor subscription rows.
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

// FindByVendor returns nil when the vendor has no subscription row.
func (r *Repository) FindByVendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorSubscription, error) {
	var sub models.VendorSubscription
	err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ApplyPayment activates the row unless the reference was already applied.
// It reports whether the row changed.
func (r *Repository) ApplyPayment(ctx context.Context, vendorID uuid.UUID, ref string, updates map[string]any) (bool, error) {
	updates["status"] = enums.SubscriptionStatusActive
	updates["last_payment_reference"] = ref
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.VendorSubscription{}).
		Where("vendor_id = ?", vendorID).
		Where("(last_payment_reference IS NULL OR last_payment_reference <> ?)", ref).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireTrials moves trials that ended before now to expired.
func (r *Repository) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorSubscription{}).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?", enums.SubscriptionStatusTrial, now).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
