package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
)

// DeriveStatus is the single definition of the product stock state.
func DeriveStatus(stockQuantity, lowStockThreshold int) enums.ProductStatus {
	switch {
	case stockQuantity <= 0:
		return enums.ProductStatusOutOfStock
	case stockQuantity <= lowStockThreshold:
		return enums.ProductStatusLowStock
	default:
		return enums.ProductStatusInStock
	}
}

// Tracker owns every stock write. Reserve and Release run as conditional
// single-statement updates so concurrent requests cannot over-reserve the
// same product.
type Tracker interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type tracker struct{}

// NewTracker returns the default stock tracker.
func NewTracker() Tracker {
	return tracker{}
}

// reserve decrements stock and recomputes status in one statement. The floor
// check lives in the WHERE clause: the row is only touched when enough stock
// remains, so a concurrent decrement can never drive the quantity negative.
const reserveQuery = `
UPDATE products
SET stock_quantity = stock_quantity - ?,
    status = CASE
        WHEN stock_quantity - ? <= 0 THEN 'outOfStock'
        WHEN stock_quantity - ? <= low_stock_threshold THEN 'lowStock'
        ELSE 'inStock'
    END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND stock_quantity >= ?
`

const releaseQuery = `
UPDATE products
SET stock_quantity = stock_quantity + ?,
    status = CASE
        WHEN stock_quantity + ? <= 0 THEN 'outOfStock'
        WHEN stock_quantity + ? <= low_stock_threshold THEN 'lowStock'
        ELSE 'inStock'
    END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (tracker) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}

	res := tx.WithContext(ctx).Exec(reserveQuery, qty, qty, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row moved: either the product is gone or the floor check failed.
	var product models.Product
	err := tx.WithContext(ctx).Select("id", "stock_quantity").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product after failed reservation")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("requested %d but only %d in stock", qty, product.StockQuantity)).
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"requested":  qty,
			"available":  product.StockQuantity,
		})
}

func (tracker) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	res := tx.WithContext(ctx).Exec(releaseQuery, qty, qty, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
