package enums

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateTransaction  OutboxAggregateType = "transaction"
	AggregateSubscription OutboxAggregateType = "vendor_subscription"
	AggregateProduct      OutboxAggregateType = "product"
)

var aggregateTypes = known[OutboxAggregateType]{
	AggregateTransaction,
	AggregateSubscription,
	AggregateProduct,
}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

// OutboxEventType is the event_type column of outbox_events and the
// event_type attribute on published messages.
type OutboxEventType string

const (
	EventSubscriptionActivated        OutboxEventType = "subscription.activated"
	EventSubscriptionPaymentInitiated OutboxEventType = "subscription.payment_initiated"
	EventImportCompleted              OutboxEventType = "import.completed"
	EventImportReconciliationNeeded   OutboxEventType = "import.reconciliation_needed"
	EventImportPaymentInitiated       OutboxEventType = "import.payment_initiated"
	EventFreeCreditClaimed            OutboxEventType = "import.free_credit_claimed"
)

var outboxEventTypes = known[OutboxEventType]{
	EventSubscriptionActivated,
	EventSubscriptionPaymentInitiated,
	EventImportCompleted,
	EventImportReconciliationNeeded,
	EventImportPaymentInitiated,
	EventFreeCreditClaimed,
}

func (e OutboxEventType) IsValid() bool { return outboxEventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return outboxEventTypes.parse("outbox event type", value)
}
