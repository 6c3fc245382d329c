package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportCreditClaim occupies one of a vendor's free import slots. The
// (vendor_id, slot) pair is unique and slot is bounded by a check constraint,
// so concurrent claims cannot exceed the quota.
type ImportCreditClaim struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Slot          int       `gorm:"column:slot;not null"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
