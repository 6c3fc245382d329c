package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Settlement is a per-store fund record written by the payout process.
type Settlement struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.SettlementStatus `gorm:"column:status;not null"`
	ReleaseDate *time.Time             `gorm:"column:release_date"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
