package enums

// ImportOutcomeStatus records how a paid import finished.
type ImportOutcomeStatus string

const (
	ImportOutcomeImported             ImportOutcomeStatus = "imported"
	ImportOutcomeReconciliationNeeded ImportOutcomeStatus = "reconciliation_needed"
)

// ImportStep names the clone step that failed.
type ImportStep string

const (
	ImportStepLookup  ImportStep = "supplier_lookup"
	ImportStepPricing ImportStep = "pricing"
	ImportStepProduct ImportStep = "product_insert"
	ImportStepImages  ImportStep = "image_clone"
	ImportStepUnknown ImportStep = "unknown"
)
