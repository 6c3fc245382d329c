package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Repository manages persistence for ledger transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	CompletePending(ctx context.Context, txn *models.Transaction) (bool, error)
	InsertIfAbsent(ctx context.Context, txn *models.Transaction) (bool, error)
	CountActiveImportsForVendor(ctx context.Context, vendorID uuid.UUID) (int64, error)
	ListUnreconciledImports(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CompletePending flips the pending row carrying txn.Reference to completed.
// It reports whether this call performed the transition.
func (r *repository) CompletePending(ctx context.Context, txn *models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", txn.Reference, enums.TransactionStatusPending).
		Updates(map[string]any{
			"status":     enums.TransactionStatusCompleted,
			"amount":     txn.Amount,
			"currency":   txn.Currency,
			"metadata":   txn.Metadata,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// InsertIfAbsent inserts txn unless a row with the same reference exists.
func (r *repository) InsertIfAbsent(ctx context.Context, txn *models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).
		Create(txn)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountActiveImportsForVendor counts market imports that were not failed
// across every store the vendor owns.
func (r *repository) CountActiveImportsForVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Joins("JOIN stores ON stores.id = transactions.store_id").
		Where("stores.vendor_id = ?", vendorID).
		Where("transactions.type = ? AND transactions.status <> ?", enums.TransactionTypeMarketImport, enums.TransactionStatusFailed).
		Count(&count).Error
	return count, err
}

// ListUnreconciledImports returns completed market imports confirmed before
// the cutoff that never produced an import outcome.
func (r *repository) ListUnreconciledImports(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("transactions.type = ? AND transactions.status = ?", enums.TransactionTypeMarketImport, enums.TransactionStatusCompleted).
		Where("transactions.updated_at < ?", before).
		Where("NOT EXISTS (SELECT 1 FROM import_outcomes o WHERE o.reference = transactions.reference)").
		Order("transactions.updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
