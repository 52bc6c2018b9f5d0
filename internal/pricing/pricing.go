package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// Discount is the evaluated form of a product discount. A nil *Discount means
// no discount at all.
type Discount struct {
	Type      enums.DiscountType
	Value     decimal.Decimal
	ExpiresAt time.Time
}

// FinalPrice returns the effective unit price at the given instant. Expired
// or absent discounts contribute nothing; the result never goes below zero.
//
// Callers pricing several lines of one order must pass the same now for all
// of them so a discount cannot expire between two lines.
func FinalPrice(originalPrice decimal.Decimal, discount *Discount, now time.Time) decimal.Decimal {
	if discount == nil || !discount.ExpiresAt.After(now) {
		return clampZero(originalPrice)
	}

	var result decimal.Decimal
	switch discount.Type {
	case enums.DiscountTypePercentage:
		result = originalPrice.Sub(originalPrice.Mul(discount.Value).Div(oneHundred))
	case enums.DiscountTypeFlat:
		result = originalPrice.Sub(discount.Value)
	default:
		result = originalPrice
	}
	return clampZero(result)
}

// LineTotal multiplies the effective unit price by the ordered quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// DiscountFromProduct lifts the optional discount columns of a product row
// into an evaluable Discount. Returns nil when the product has none.
func DiscountFromProduct(product *models.Product) *Discount {
	if product == nil || product.DiscountType == nil || product.DiscountValue == nil || product.DiscountExpiresAt == nil {
		return nil
	}
	return &Discount{
		Type:      *product.DiscountType,
		Value:     *product.DiscountValue,
		ExpiresAt: *product.DiscountExpiresAt,
	}
}

func clampZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
