package enums

import "fmt"

// OutboxEventType labels domain events handed off for external delivery.
type OutboxEventType string

const (
	EventCustomerAccountCreated OutboxEventType = "customer.account_created"
	EventPaymentReminder        OutboxEventType = "customer.payment_reminder"
	EventOrderCreated           OutboxEventType = "order.created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCustomerAccountCreated,
	EventPaymentReminder,
	EventOrderCreated,
}

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known OutboxEventType.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
