package enums

// TransactionStatus tracks a ledger transaction. Only pending rows may
// change; completed and failed are terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

var transactionStatuses = known[TransactionStatus]{
	TransactionStatusPending,
	TransactionStatusCompleted,
	TransactionStatusFailed,
}

func (s TransactionStatus) String() string { return string(s) }

func (s TransactionStatus) IsValid() bool { return transactionStatuses.has(s) }

func ParseTransactionStatus(value string) (TransactionStatus, error) {
	return transactionStatuses.parse("transaction status", value)
}

// TransactionType classifies what a transaction paid for.
type TransactionType string

const (
	TransactionTypeMarketImport TransactionType = "market_import"
	TransactionTypeSubscription TransactionType = "subscription"
)

func (t TransactionType) String() string { return string(t) }
