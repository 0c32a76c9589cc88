package enums

// OutboxEventType identifies the domain event written to the outbox table.
type OutboxEventType string

const (
	EventCheckoutPaid   OutboxEventType = "checkout.paid"
	EventOrderFinalized OutboxEventType = "order.finalized"
	EventCartMerged     OutboxEventType = "cart.merged"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateCheckout OutboxAggregateType = "checkout"
	AggregateOrder    OutboxAggregateType = "order"
	AggregateCart     OutboxAggregateType = "cart"
)
