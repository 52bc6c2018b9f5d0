package enums

import "fmt"

// CustomerPaymentStatus is derived from the sign of the customer balance.
//
// The naming is historical and deliberately kept: "pending" means the balance
// went below zero (the customer overpaid), "partially_paid" means an amount is
// still owed, "paid" means the balance is settled at exactly zero.
type CustomerPaymentStatus string

const (
	CustomerPaymentStatusPaid          CustomerPaymentStatus = "paid"
	CustomerPaymentStatusPartiallyPaid CustomerPaymentStatus = "partially_paid"
	CustomerPaymentStatusPending       CustomerPaymentStatus = "pending"
)

var validCustomerPaymentStatuses = []CustomerPaymentStatus{
	CustomerPaymentStatusPaid,
	CustomerPaymentStatusPartiallyPaid,
	CustomerPaymentStatusPending,
}

// String implements fmt.Stringer.
func (s CustomerPaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CustomerPaymentStatus.
func (s CustomerPaymentStatus) IsValid() bool {
	for _, candidate := range validCustomerPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCustomerPaymentStatus converts raw input into a CustomerPaymentStatus.
func ParseCustomerPaymentStatus(value string) (CustomerPaymentStatus, error) {
	for _, candidate := range validCustomerPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer payment status %q", value)
}
