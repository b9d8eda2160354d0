package enums

// OutboxEventType names a domain event queued for publication.
type OutboxEventType string

const (
	EventInvoiceCreated        OutboxEventType = "invoice.created"
	EventInvoiceSynced         OutboxEventType = "invoice.synced"
	EventInvoicePaid           OutboxEventType = "invoice.paid"
	EventRelationSynced        OutboxEventType = "relation.synced"
	EventCreditNoteSynced      OutboxEventType = "credit_note.synced"
	EventPurchaseInvoiceSynced OutboxEventType = "purchase_invoice.synced"
)

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateInvoice         OutboxAggregateType = "invoice"
	AggregateRelation        OutboxAggregateType = "relation"
	AggregateCreditNote      OutboxAggregateType = "credit_note"
	AggregatePurchaseInvoice OutboxAggregateType = "purchase_invoice"
)

// String implements fmt.Stringer.
func (a OutboxAggregateType) String() string {
	return string(a)
}
