package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// ImportOutcome is the operator-visible result of cloning a paid import.
type ImportOutcome struct {
	ID                uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference         string                    `gorm:"column:reference;not null;uniqueIndex"`
	StoreID           uuid.UUID                 `gorm:"column:store_id;type:uuid;not null"`
	SupplierProductID uuid.UUID                 `gorm:"column:supplier_product_id;type:uuid;not null"`
	ProductID         *uuid.UUID                `gorm:"column:product_id;type:uuid"`
	Status            enums.ImportOutcomeStatus `gorm:"column:status;not null"`
	FailedStep        *enums.ImportStep         `gorm:"column:failed_step"`
	Error             *string                   `gorm:"column:error"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
