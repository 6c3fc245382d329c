package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// Transaction is a ledger entry for a monetary event. Reference is unique and
// is the idempotency key shared with the payment provider.
type Transaction struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID               `gorm:"column:store_id;type:uuid;not null;index"`
	Reference string                  `gorm:"column:reference;not null;uniqueIndex"`
	Amount    decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency  string                  `gorm:"column:currency;not null"`
	Status    enums.TransactionStatus `gorm:"column:status;not null"`
	Type      enums.TransactionType   `gorm:"column:type;not null"`
	Metadata  json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
