package enums

// SettlementStatus is the escrow state of funds owed to a store.
type SettlementStatus string

const (
	SettlementStatusPending  SettlementStatus = "pending"
	SettlementStatusCleared  SettlementStatus = "cleared"
	SettlementStatusFrozen   SettlementStatus = "frozen"
	SettlementStatusDisputed SettlementStatus = "disputed"
)

var settlementStatuses = known[SettlementStatus]{
	SettlementStatusPending,
	SettlementStatusCleared,
	SettlementStatusFrozen,
	SettlementStatusDisputed,
}

func (s SettlementStatus) String() string { return string(s) }

func (s SettlementStatus) IsValid() bool { return settlementStatuses.has(s) }

// IsOnHold reports whether funds are blocked pending operator action.
func (s SettlementStatus) IsOnHold() bool {
	return s == SettlementStatusFrozen || s == SettlementStatusDisputed
}

func ParseSettlementStatus(value string) (SettlementStatus, error) {
	return settlementStatuses.parse("settlement status", value)
}
