package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionActivated is emitted when a confirmed payment activates a plan.
type SubscriptionActivated struct {
	VendorID         uuid.UUID  `json:"vendorId"`
	Reference        string     `json:"reference"`
	PlanID           string     `json:"planId,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

// PaymentInitiated is emitted when a collection is handed to the provider.
type PaymentInitiated struct {
	Reference      string          `json:"reference"`
	StoreID        *uuid.UUID      `json:"storeId,omitempty"`
	VendorID       uuid.UUID       `json:"vendorId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Provider       string          `json:"provider"`
	ProviderID     string          `json:"providerId,omitempty"`
	OutcomeUnknown bool            `json:"outcomeUnknown,omitempty"`
}

// ImportResult is emitted once a paid or credited import has been cloned, or
// has been parked for reconciliation.
type ImportResult struct {
	Reference         string     `json:"reference"`
	StoreID           uuid.UUID  `json:"storeId"`
	SupplierProductID uuid.UUID  `json:"supplierProductId"`
	ProductID         *uuid.UUID `json:"productId,omitempty"`
	FailedStep        string     `json:"failedStep,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// FreeCreditClaimed is emitted when a vendor spends one free import slot.
type FreeCreditClaimed struct {
	VendorID  uuid.UUID `json:"vendorId"`
	StoreID   uuid.UUID `json:"storeId"`
	Reference string    `json:"reference"`
	Slot      int       `json:"slot"`
}
