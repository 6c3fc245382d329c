package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
)

// ErrNotFound is returned when a product lookup matches no row.
var ErrNotFound = errors.New("product not found")

// SupplierReader loads supplier products regardless of the owning store. It is
// the only cross-tenant read surface and exists for market imports.
type SupplierReader interface {
	FindSupplierProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
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

// FindByStore loads a product only if it belongs to storeID.
func (r *Repository) FindByStore(ctx context.Context, storeID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindSupplierProduct loads the product with its images ordered by position.
func (r *Repository) FindSupplierProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateWithImages inserts the product, then its images pointing at it.
func (r *Repository) CreateWithImages(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	images := product.Images
	if err := r.db.WithContext(ctx).Omit("Images").Create(product).Error; err != nil {
		return &StepError{Step: StepProduct, Err: err}
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = product.ID
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		return &StepError{Step: StepImages, Err: err}
	}
	product.Images = images
	return nil
}
