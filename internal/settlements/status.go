package settlements

import "github.com/angelmondragon/zedmarket-backend/pkg/enums"

// FriendlyStatus is the vendor-facing presentation of a settlement status.
type FriendlyStatus struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
	ActionLabel string `json:"actionLabel,omitempty"`
}

// Friendly maps a settlement status to its dashboard copy.
func Friendly(status enums.SettlementStatus) FriendlyStatus {
	switch status {
	case enums.SettlementStatusCleared:
		return FriendlyStatus{
			Label:       "Cleared",
			Description: "Funds have been successfully released to your account.",
			Variant:     "default",
		}
	case enums.SettlementStatusPending:
		return FriendlyStatus{
			Label:       "Processing",
			Description: "Funds are securely held in escrow. Release usually takes 24-48 hours after delivery.",
			Variant:     "secondary",
		}
	case enums.SettlementStatusFrozen, enums.SettlementStatusDisputed:
		return FriendlyStatus{
			Label:       "Action Required",
			Description: "These funds are currently on hold due to a dispute or review. Please contact support.",
			Variant:     "destructive",
			ActionLabel: "Contact Support",
		}
	}
	return FriendlyStatus{
		Label:       string(status),
		Description: "Status unknown.",
		Variant:     "outline",
	}
}
