package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/enums"
)

// Customer is the canonical ledger party. Balance is signed: positive means
// the customer still owes, negative means the customer overpaid.
//
// Balance and PaymentStatus are only ever written through the ledger service;
// nothing else may assign them.
type Customer struct {
	ID                 uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string                      `gorm:"column:name;not null"`
	Phone              string                      `gorm:"column:phone;not null;uniqueIndex"`
	Address            *string                     `gorm:"column:address"`
	Balance            decimal.Decimal             `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	PaymentStatus      enums.CustomerPaymentStatus `gorm:"column:payment_status;not null;default:'paid'"`
	AccessKeyHash      *string                     `gorm:"column:access_key_hash"`
	AccessKeyExpiresAt *time.Time                  `gorm:"column:access_key_expires_at"`
	CreatedAt          time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
