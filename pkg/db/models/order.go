package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/enums"
)

// Order is a customer order. Amount is the sum of the item snapshot totals
// plus the delivery cost, captured at write time.
type Order struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.OrderStatus        `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus   enums.OrderPaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	DeliveryAddress string                   `gorm:"column:delivery_address;not null"`
	DeliveryCost    decimal.Decimal          `gorm:"column:delivery_cost;type:numeric(12,2);not null;default:0"`
	Amount          decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Note            *string                  `gorm:"column:note"`
	Items           []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
