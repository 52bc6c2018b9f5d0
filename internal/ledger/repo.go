package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
)

// Repository manages persistence for the customer balance ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	SumOrders(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	SumPayments(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	ListCustomerIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ErrCustomerGone reports a delta against a customer row that no longer
// exists. Callers decide whether that is fatal.
var ErrCustomerGone = errors.New("ledger: customer not found")

// applyDeltaQuery is the single balance mutation in the codebase. The new
// payment status is derived inside the same statement so balance and status
// can never be observed out of step.
const applyDeltaQuery = `
UPDATE customers
SET balance = balance + ?,
    payment_status = CASE
        WHEN balance + ? = 0 THEN 'paid'
        WHEN balance + ? > 0 THEN 'partially_paid'
        ELSE 'pending'
    END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (r *repository) ApplyDelta(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(applyDeltaQuery, delta, delta, delta, customerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCustomerGone
	}
	return nil
}

func (r *repository) GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerGone
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) SumOrders(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return r.sumColumn(ctx, "orders", customerID)
}

func (r *repository) SumPayments(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return r.sumColumn(ctx, "payments", customerID)
}

func (r *repository) sumColumn(ctx context.Context, table string, customerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Table(table).
		Select("SUM(amount)").
		Where("customer_id = ?", customerID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repository) ListCustomerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
