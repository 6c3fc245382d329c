package stores

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
)

// Repository handles store lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return &store, nil
}

// FindOwned loads the store only when vendorID owns it. Stores owned by other
// vendors are reported as forbidden.
func (r *Repository) FindOwned(ctx context.Context, vendorID, storeID uuid.UUID) (*models.Store, error) {
	store, err := r.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to vendor")
	}
	return store, nil
}
