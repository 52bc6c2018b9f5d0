package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
)

func TestFinalPrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	cases := []struct {
		name     string
		original string
		discount *Discount
		want     string
	}{
		{
			name:     "no discount",
			original: "100",
			discount: nil,
			want:     "100",
		},
		{
			name:     "active percentage",
			original: "100",
			discount: &Discount{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(20), ExpiresAt: future},
			want:     "80",
		},
		{
			name:     "expired percentage contributes nothing",
			original: "100",
			discount: &Discount{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(20), ExpiresAt: past},
			want:     "100",
		},
		{
			name:     "expiry at the evaluation instant is inert",
			original: "100",
			discount: &Discount{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(20), ExpiresAt: now},
			want:     "100",
		},
		{
			name:     "active flat",
			original: "100",
			discount: &Discount{Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(30), ExpiresAt: future},
			want:     "70",
		},
		{
			name:     "flat larger than price clamps to zero",
			original: "100",
			discount: &Discount{Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(150), ExpiresAt: future},
			want:     "0",
		},
		{
			name:     "fractional percentage",
			original: "99.99",
			discount: &Discount{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(10), ExpiresAt: future},
			want:     "89.991",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			original := decimal.RequireFromString(tc.original)
			want := decimal.RequireFromString(tc.want)
			got := FinalPrice(original, tc.discount, now)
			if !got.Equal(want) {
				t.Fatalf("FinalPrice(%s) = %s, want %s", tc.original, got, want)
			}
		})
	}
}

func TestFinalPriceIsDeterministic(t *testing.T) {
	now := time.Now()
	discount := &Discount{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(15), ExpiresAt: now.Add(time.Hour)}
	first := FinalPrice(decimal.NewFromInt(250), discount, now)
	second := FinalPrice(decimal.NewFromInt(250), discount, now)
	if !first.Equal(second) {
		t.Fatalf("same inputs must price identically: %s vs %s", first, second)
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("12.50"), 4)
	if !got.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected line total: %s", got)
	}
}

func TestDiscountFromProduct(t *testing.T) {
	if DiscountFromProduct(nil) != nil {
		t.Fatal("nil product should have no discount")
	}
	if DiscountFromProduct(&models.Product{}) != nil {
		t.Fatal("product without discount columns should have no discount")
	}

	dtype := enums.DiscountTypeFlat
	value := decimal.NewFromInt(5)
	expires := time.Now().Add(time.Hour)
	product := &models.Product{DiscountType: &dtype, DiscountValue: &value, DiscountExpiresAt: &expires}

	got := DiscountFromProduct(product)
	if got == nil || got.Type != enums.DiscountTypeFlat || !got.Value.Equal(value) || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected discount: %+v", got)
	}
}
