package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/enums"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
)

// ItemInput is one requested line: which product and how many units.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries everything an order creation needs. The customer
// is resolved by phone and auto-registered when unknown.
type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress *string
	DeliveryAddress string
	DeliveryCost    decimal.Decimal
	Note            *string
	Items           []ItemInput
	Actor           *outbox.ActorRef
}

// UpdateFieldsInput carries partial order header updates. Nil fields are left
// untouched. A delivery cost change re-prices the order and moves the
// customer balance by the difference.
type UpdateFieldsInput struct {
	Status          *enums.OrderStatus
	PaymentStatus   *enums.OrderPaymentStatus
	DeliveryAddress *string
	DeliveryCost    *decimal.Decimal
	Note            *string
}

// ListFilter narrows the order listing. Zero values mean "no constraint".
type ListFilter struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.OrderPaymentStatus
	CustomerID    *uuid.UUID
	ProductID     *uuid.UUID
	AmountMin     *decimal.Decimal
	AmountMax     *decimal.Decimal
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Search        string // matches order id prefix, customer name or phone
	Page          int
	Limit         int
}
