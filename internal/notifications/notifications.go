package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AccountCreatedEvent announces a freshly registered customer.
type AccountCreatedEvent struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
}

// PaymentReminderEvent nudges a customer whose balance is outstanding.
type PaymentReminderEvent struct {
	CustomerID    uuid.UUID                   `json:"customer_id"`
	Name          string                      `json:"name"`
	Phone         string                      `json:"phone"`
	Balance       decimal.Decimal             `json:"balance"`
	PaymentStatus enums.CustomerPaymentStatus `json:"payment_status"`
}

// OrderCreatedEvent announces a persisted order, after commit.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	ItemCount  int             `json:"item_count"`
}

// Service hands notification payloads to the outbox. Delivery (SMS, email)
// happens outside this process.
type Service struct {
	outbox outboxPublisher
}

func NewService(publisher outboxPublisher) (*Service, error) {
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{outbox: publisher}, nil
}

// AccountCreated queues the welcome notification inside the caller's
// transaction.
func (s *Service) AccountCreated(ctx context.Context, tx *gorm.DB, customer *models.Customer, actor *outbox.ActorRef) error {
	if customer == nil {
		return fmt.Errorf("customer required")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCustomerAccountCreated,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   customer.ID,
		Actor:         actor,
		Version:       1,
		Data: AccountCreatedEvent{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Phone:      customer.Phone,
		},
	})
}

// PaymentReminder queues a balance reminder for the customer.
func (s *Service) PaymentReminder(ctx context.Context, tx *gorm.DB, customer *models.Customer, actor *outbox.ActorRef) error {
	if customer == nil {
		return fmt.Errorf("customer required")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentReminder,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   customer.ID,
		Actor:         actor,
		Version:       1,
		Data: PaymentReminderEvent{
			CustomerID:    customer.ID,
			Name:          customer.Name,
			Phone:         customer.Phone,
			Balance:       customer.Balance,
			PaymentStatus: customer.PaymentStatus,
		},
	})
}

// OrderCreated queues the order-created notification.
func (s *Service) OrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor *outbox.ActorRef) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Version:       1,
		Data: OrderCreatedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Amount:     order.Amount,
			ItemCount:  len(order.Items),
		},
	})
}
