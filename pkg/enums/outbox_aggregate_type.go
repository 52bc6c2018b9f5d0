package enums

// OutboxAggregateType names the entity a domain event is anchored to.
type OutboxAggregateType string

const (
	AggregateCustomer OutboxAggregateType = "customer"
	AggregateOrder    OutboxAggregateType = "order"
	AggregatePayment  OutboxAggregateType = "payment"
)

// String implements fmt.Stringer.
func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateCustomer, AggregateOrder, AggregatePayment:
		return true
	default:
		return false
	}
}
