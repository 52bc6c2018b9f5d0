package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
)

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		stock     int
		threshold int
		want      enums.ProductStatus
	}{
		{name: "zero stock", stock: 0, threshold: 5, want: enums.ProductStatusOutOfStock},
		{name: "negative stock", stock: -2, threshold: 5, want: enums.ProductStatusOutOfStock},
		{name: "at threshold", stock: 5, threshold: 5, want: enums.ProductStatusLowStock},
		{name: "below threshold", stock: 1, threshold: 5, want: enums.ProductStatusLowStock},
		{name: "above threshold", stock: 6, threshold: 5, want: enums.ProductStatusInStock},
		{name: "zero threshold in stock", stock: 1, threshold: 0, want: enums.ProductStatusInStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.stock, tc.threshold))
		})
	}
}

func TestReserveDecrementsAndDerivesStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tr := NewTracker()

	id := seedProduct(t, db, 10, 5)

	require.NoError(t, tr.Reserve(ctx, db, id, 4))
	assertProductState(t, db, id, 6, enums.ProductStatusInStock)

	require.NoError(t, tr.Reserve(ctx, db, id, 2))
	assertProductState(t, db, id, 4, enums.ProductStatusLowStock)

	require.NoError(t, tr.Reserve(ctx, db, id, 4))
	assertProductState(t, db, id, 0, enums.ProductStatusOutOfStock)
}

func TestReserveBeyondStockFailsUnchanged(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	tr := NewTracker()

	id := seedProduct(t, db, 3, 5)

	err := tr.Reserve(context.Background(), db, id, 4)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assertProductState(t, db, id, 3, enums.ProductStatusLowStock)
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := NewTracker().Reserve(context.Background(), db, uuid.New(), 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	id := seedProduct(t, db, 3, 5)

	err := NewTracker().Reserve(context.Background(), db, id, 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assertProductState(t, db, id, 3, enums.ProductStatusLowStock)
}

func TestReleaseRestoresStockAndStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tr := NewTracker()

	id := seedProduct(t, db, 6, 5)

	require.NoError(t, tr.Reserve(ctx, db, id, 6))
	assertProductState(t, db, id, 0, enums.ProductStatusOutOfStock)

	require.NoError(t, tr.Release(ctx, db, id, 6))
	assertProductState(t, db, id, 6, enums.ProductStatusInStock)
}

func TestReleaseUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := NewTracker().Release(context.Background(), db, uuid.New(), 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func seedProduct(t *testing.T, db *gorm.DB, stock, threshold int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:                uuid.New(),
		Name:              "Chicken Biryani Tray",
		StockQuantity:     stock,
		LowStockThreshold: threshold,
		Status:            DeriveStatus(stock, threshold),
	}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func assertProductState(t *testing.T, db *gorm.DB, id uuid.UUID, wantStock int, wantStatus enums.ProductStatus) {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	assert.Equal(t, wantStock, product.StockQuantity)
	assert.Equal(t, wantStatus, product.Status)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  tags TEXT,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  discount_type TEXT,
  discount_value NUMERIC,
  discount_expires_at DATETIME,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 5,
  status TEXT NOT NULL DEFAULT 'outOfStock',
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}
