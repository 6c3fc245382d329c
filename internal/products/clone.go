package products

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Step identifies which write of a clone failed.
type Step string

const (
	StepProduct Step = "product"
	StepImages  Step = "images"
)

// StepError wraps a write failure with the step it happened in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s insert: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ImportPrice applies the markup to the wholesale basis, rounded to cents.
func ImportPrice(wholesale, markup decimal.Decimal) decimal.Decimal {
	return wholesale.Mul(markup).Round(2)
}

// BuildImportClone copies the supplier listing into storeID as a draft priced
// at the marked-up wholesale price. Images keep their URLs and order.
func BuildImportClone(supplier models.Product, storeID uuid.UUID, markup decimal.Decimal) (models.Product, error) {
	if storeID == uuid.Nil {
		return models.Product{}, fmt.Errorf("store id is required")
	}
	if !markup.IsPositive() {
		return models.Product{}, fmt.Errorf("markup must be positive")
	}
	wholesale := supplier.WholesalePrice()
	if wholesale.IsNegative() {
		return models.Product{}, fmt.Errorf("supplier price must not be negative")
	}

	supplierID := supplier.ID
	clone := models.Product{
		ID:                uuid.New(),
		StoreID:           storeID,
		Name:              supplier.Name,
		Category:          supplier.Category,
		Description:       supplier.Description,
		SKU:               supplier.SKU,
		Tags:              append([]string(nil), supplier.Tags...),
		Stock:             supplier.Stock,
		Weight:            supplier.Weight,
		Dimensions:        supplier.Dimensions,
		Attributes:        supplier.Attributes,
		Price:             ImportPrice(wholesale, markup),
		SupplierPrice:     decimal.NewNullDecimal(wholesale),
		Status:            enums.ProductStatusDraft,
		IsDropshippable:   false,
		SupplierProductID: &supplierID,
	}
	for _, img := range supplier.Images {
		clone.Images = append(clone.Images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: clone.ID,
			URL:       img.URL,
			Position:  img.Position,
		})
	}
	return clone, nil
}
