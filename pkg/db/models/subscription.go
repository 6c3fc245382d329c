package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

// VendorSubscription is the single plan row per vendor.
type VendorSubscription struct {
	ID                   uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID                `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null;default:'trial'"`
	PlanID               string                   `gorm:"column:plan_id;not null"`
	TrialEndsAt          *time.Time               `gorm:"column:trial_ends_at"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	// LastPaymentReference is the most recent provider reference applied, so
	// a redelivered confirmation does not extend the period twice.
	LastPaymentReference *string                  `gorm:"column:last_payment_reference"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
