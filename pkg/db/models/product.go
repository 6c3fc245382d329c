package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Product is a store listing. Imported listings keep a pointer back to the
// supplier product and the wholesale price the markup was computed from.
type Product struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID           uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	Name              string              `gorm:"column:name;not null"`
	Category          *string             `gorm:"column:category"`
	Description       *string             `gorm:"column:description"`
	SKU               *string             `gorm:"column:sku"`
	Tags              pq.StringArray      `gorm:"column:tags;type:text[]"`
	Stock             int                 `gorm:"column:stock;not null;default:0"`
	Weight            decimal.NullDecimal `gorm:"column:weight;type:numeric(10,3)"`
	Dimensions        json.RawMessage     `gorm:"column:dimensions;type:jsonb"`
	Attributes        json.RawMessage     `gorm:"column:attributes;type:jsonb"`
	Price             decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	SupplierPrice     decimal.NullDecimal `gorm:"column:supplier_price;type:numeric(12,2)"`
	Status            enums.ProductStatus `gorm:"column:status;not null;default:'Draft'"`
	IsDropshippable   bool                `gorm:"column:is_dropshippable;not null;default:false"`
	SupplierProductID *uuid.UUID          `gorm:"column:supplier_product_id;type:uuid"`
	Images            []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// WholesalePrice is the basis for import markup: the explicit supplier price
// when set, otherwise the listing price.
func (p Product) WholesalePrice() decimal.Decimal {
	if p.SupplierPrice.Valid {
		return p.SupplierPrice.Decimal
	}
	return p.Price
}
