package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/enums"
)

// Payment records money received against a customer's aggregate balance, not
// against a specific order. Exactly one block of transaction details is
// populated, chosen by Method: bank name + transaction id for bank transfers,
// wallet number + transaction id for bkash/nagad, receiver name for cash.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method        enums.PaymentMethod `gorm:"column:method;not null"`
	BankName      *string             `gorm:"column:bank_name"`
	WalletNumber  *string             `gorm:"column:wallet_number"`
	TransactionID *string             `gorm:"column:transaction_id"`
	ReceiverName  *string             `gorm:"column:receiver_name"`
	Note          *string             `gorm:"column:note"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
