package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/internal/catalog"
	"github.com/caterbase/caterbase-backend/internal/customers"
	"github.com/caterbase/caterbase-backend/internal/inventory"
	"github.com/caterbase/caterbase-backend/internal/ledger"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
)

type fakeNotifier struct {
	accountCreated []uuid.UUID
	orderCreated   []uuid.UUID
}

func (f *fakeNotifier) AccountCreated(_ context.Context, _ *gorm.DB, customer *models.Customer, _ *outbox.ActorRef) error {
	f.accountCreated = append(f.accountCreated, customer.ID)
	return nil
}

func (f *fakeNotifier) PaymentReminder(_ context.Context, _ *gorm.DB, _ *models.Customer, _ *outbox.ActorRef) error {
	return nil
}

func (f *fakeNotifier) OrderCreated(_ context.Context, _ *gorm.DB, order *models.Order, _ *outbox.ActorRef) error {
	f.orderCreated = append(f.orderCreated, order.ID)
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type fixture struct {
	db      *gorm.DB
	orders  Service
	catalog catalog.Service
	ledger  ledger.Service
	notify  *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, config.OrdersConfig{})
}

func newFixtureWithConfig(t *testing.T, cfg config.OrdersConfig) *fixture {
	t.Helper()

	db := newTestDB(t)
	runner := gormTxRunner{db: db}
	notify := &fakeNotifier{}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), nil, nil)
	require.NoError(t, err)

	customerSvc, err := customers.NewService(
		customers.NewRepository(db), runner, notify, config.AccessKeyConfig{TTLMinutes: 60}, nil)
	require.NoError(t, err)

	catalogSvc, err := catalog.NewService(
		catalog.NewRepository(db), config.InventoryConfig{DefaultLowStockThreshold: 5})
	require.NoError(t, err)

	orderSvc, err := NewService(
		NewRepository(db),
		catalog.NewRepository(db),
		customerSvc,
		inventory.NewTracker(),
		ledgerSvc,
		notify,
		runner,
		cfg,
		nil,
		nil,
	)
	require.NoError(t, err)

	return &fixture{db: db, orders: orderSvc, catalog: catalogSvc, ledger: ledgerSvc, notify: notify}
}

func (f *fixture) seedProduct(t *testing.T, name string, price int64, stock int, discount *catalog.DiscountInput) *models.Product {
	t.Helper()
	product, err := f.catalog.Create(context.Background(), catalog.CreateProductInput{
		Name:          name,
		UnitPrice:     decimal.NewFromInt(price),
		StockQuantity: stock,
		Discount:      discount,
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) productStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", id).Error)
	return product.StockQuantity
}

func (f *fixture) customerBalance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var customer models.Customer
	require.NoError(t, f.db.First(&customer, "id = ?", id).Error)
	return customer.Balance
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	expires := time.Now().Add(24 * time.Hour)
	discounted := f.seedProduct(t, "Kacchi Biryani Tray", 1000, 10, &catalog.DiscountInput{
		Type:      enums.DiscountTypePercentage,
		Value:     decimal.NewFromInt(20),
		ExpiresAt: &expires,
	})
	plain := f.seedProduct(t, "Borhani Jar", 150, 50, nil)

	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim Uddin",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		DeliveryCost:    decimal.NewFromInt(100),
		Items: []ItemInput{
			{ProductID: discounted.ID, Quantity: 2},
			{ProductID: plain.ID, Quantity: 4},
		},
	})
	require.NoError(t, err)

	// 2 x 800 (20% off 1000) + 4 x 150 + 100 delivery.
	assert.Equal(t, "2300", order.Amount.String())
	require.Len(t, order.Items, 2)
	assert.Equal(t, "800", order.Items[0].UnitPrice.String())
	assert.Equal(t, "Kacchi Biryani Tray", order.Items[0].Name)

	assert.Equal(t, 8, f.productStock(t, discounted.ID))
	assert.Equal(t, 46, f.productStock(t, plain.ID))

	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(2300)), "balance = %s", balance)

	require.Len(t, f.notify.accountCreated, 1, "customer auto-registered")
	require.Len(t, f.notify.orderCreated, 1)

	report, err := f.ledger.Audit(ctx, order.CustomerID)
	require.NoError(t, err)
	assert.True(t, report.InSync())
}

func TestCreateOrderReusesCustomerByPhone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Chicken Roast Tray", 1100, 30, nil)

	first, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	second, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim (different spelling)",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Len(t, f.notify.accountCreated, 1)

	balance := f.customerBalance(t, first.CustomerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(3300)), "balance = %s", balance)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	plenty := f.seedProduct(t, "Plain Polao Tray", 500, 20, nil)
	scarce := f.seedProduct(t, "Mutton Rezala Tray", 1500, 1, nil)

	_, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items: []ItemInput{
			{ProductID: plenty.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// The whole transaction rolled back: no stock movement anywhere, no
	// order, no auto-registered customer.
	assert.Equal(t, 20, f.productStock(t, plenty.ID))
	assert.Equal(t, 1, f.productStock(t, scarce.ID))

	var orderCount, customerCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, f.db.Model(&models.Customer{}).Count(&customerCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, customerCount)
	assert.Empty(t, f.notify.orderCreated)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.orders.Create(context.Background(), CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderSameProductOnSeveralLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Shahi Firni Cup", 80, 10, nil)

	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// Each line keeps its own snapshot and its own reservation.
	require.Len(t, order.Items, 2)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 2, order.Items[1].Quantity)
	assert.Equal(t, "400", order.Amount.String())
	assert.Equal(t, 5, f.productStock(t, product.ID))
}

func TestCreateOrderSameProductLinesShareTheFloor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Malai Cha Flask", 120, 4, nil)

	_, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// The second line failed the floor check, so the first line's
	// reservation rolled back with the transaction.
	assert.Equal(t, 4, f.productStock(t, product.ID))
}

func TestUpdateItemsKeepsSnapshotPrices(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Beef Tehari Tray", 1000, 20, nil)

	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Catalog price doubles after the order was taken.
	newPrice := decimal.NewFromInt(2000)
	_, err = f.catalog.Update(ctx, product.ID, catalog.UpdateProductInput{UnitPrice: &newPrice})
	require.NoError(t, err)

	updated, err := f.orders.UpdateItems(ctx, order.ID, []ItemInput{
		{ProductID: product.ID, Quantity: 5},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, "1000", updated.Items[0].UnitPrice.String(), "snapshot price survives catalog change")
	assert.Equal(t, "5000", updated.Amount.String())

	// Ledger moved by the difference (2000 -> 5000); stock untouched.
	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(5000)), "balance = %s", balance)
	assert.Equal(t, 18, f.productStock(t, product.ID))

	report, err := f.ledger.Audit(ctx, order.CustomerID)
	require.NoError(t, err)
	assert.True(t, report.InSync())
}

func TestUpdateItemsNewProductPricedAtCurrentPrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	existing := f.seedProduct(t, "Beef Tehari Tray", 1000, 20, nil)
	added := f.seedProduct(t, "Firni Cup", 80, 100, nil)

	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: existing.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := f.orders.UpdateItems(ctx, order.ID, []ItemInput{
		{ProductID: existing.ID, Quantity: 1},
		{ProductID: added.ID, Quantity: 10},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.Equal(t, "1800", updated.Amount.String())

	// New line never reserved stock.
	assert.Equal(t, 100, f.productStock(t, added.ID))
}

func TestUpdateFieldsDeliveryCostMovesBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Chicken Korma Tray", 900, 10, nil)
	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		DeliveryCost:    decimal.NewFromInt(50),
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "950", order.Amount.String())

	newCost := decimal.NewFromInt(150)
	updated, err := f.orders.UpdateFields(ctx, order.ID, UpdateFieldsInput{DeliveryCost: &newCost})
	require.NoError(t, err)
	assert.Equal(t, "1050", updated.Amount.String())

	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(1050)), "balance = %s", balance)
}

func TestUpdateFieldsTerminalStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Chicken Korma Tray", 900, 10, nil)
	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	cancelled := enums.OrderStatusCancelled
	_, err = f.orders.UpdateFields(ctx, order.ID, UpdateFieldsInput{Status: &cancelled})
	require.NoError(t, err)

	// Cancelling is record-keeping only: the balance stays put.
	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(900)), "balance = %s", balance)

	processing := enums.OrderStatusProcessing
	_, err = f.orders.UpdateFields(ctx, order.ID, UpdateFieldsInput{Status: &processing})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestDeleteOrderReversesBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Vegetable Khichuri Tray", 600, 10, nil)
	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, f.productStock(t, product.ID))

	require.NoError(t, f.orders.Delete(ctx, order.ID))

	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.IsZero(), "balance = %s", balance)
	assert.Equal(t, 7, f.productStock(t, product.ID), "release switch off: stock stays reserved")

	_, err = f.orders.Get(ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteOrderReleasesStockWhenConfigured(t *testing.T) {
	t.Parallel()

	f := newFixtureWithConfig(t, config.OrdersConfig{ReleaseStockOnDelete: true})
	ctx := context.Background()

	product := f.seedProduct(t, "Vegetable Khichuri Tray", 600, 10, nil)
	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, f.productStock(t, product.ID))

	require.NoError(t, f.orders.Delete(ctx, order.ID))
	assert.Equal(t, 10, f.productStock(t, product.ID))
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cheap := f.seedProduct(t, "Borhani Jar", 100, 100, nil)
	pricey := f.seedProduct(t, "Whole Mezban Package", 5000, 100, nil)

	first, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		Items:           []ItemInput{{ProductID: cheap.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Salma",
		CustomerPhone:   "01833334444",
		DeliveryAddress: "3 Dhanmondi Lake Road, Dhaka",
		Items:           []ItemInput{{ProductID: pricey.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	shipped := enums.OrderStatusShipped
	_, err = f.orders.UpdateFields(ctx, first.ID, UpdateFieldsInput{Status: &shipped})
	require.NoError(t, err)

	rows, page, err := f.orders.List(ctx, ListFilter{Status: &shipped})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, int64(1), page.Total)

	minAmount := decimal.NewFromInt(1000)
	rows, _, err = f.orders.List(ctx, ListFilter{AmountMin: &minAmount})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(5000)))

	rows, _, err = f.orders.List(ctx, ListFilter{Search: "salma"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, _, err = f.orders.List(ctx, ListFilter{ProductID: &cheap.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
}

func TestMixedSequenceKeepsLedgerInSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Beef Tehari Tray", 1000, 50, nil)

	order, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerName:    "Karim",
		CustomerPhone:   "01711112222",
		DeliveryAddress: "12 Gulshan Avenue, Dhaka",
		DeliveryCost:    decimal.NewFromInt(100),
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	audit := func() {
		t.Helper()
		report, err := f.ledger.Audit(ctx, order.CustomerID)
		require.NoError(t, err)
		assert.True(t, report.InSync(), "drift %s", report.Drift)
	}
	audit()

	_, err = f.orders.UpdateItems(ctx, order.ID, []ItemInput{{ProductID: product.ID, Quantity: 6}})
	require.NoError(t, err)
	audit()

	newCost := decimal.NewFromInt(250)
	_, err = f.orders.UpdateFields(ctx, order.ID, UpdateFieldsInput{DeliveryCost: &newCost})
	require.NoError(t, err)
	audit()

	require.NoError(t, f.orders.Delete(ctx, order.ID))
	audit()

	balance := f.customerBalance(t, order.CustomerID)
	assert.True(t, balance.IsZero(), "balance = %s", balance)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, schema := range []string{customersSchema, productsSchema, ordersSchema, orderItemsSchema, paymentsSchema} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

const customersSchema = `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  address TEXT,
  balance NUMERIC NOT NULL DEFAULT 0,
  payment_status TEXT NOT NULL DEFAULT 'paid',
  access_key_hash TEXT,
  access_key_expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

const productsSchema = `
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

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  delivery_address TEXT NOT NULL,
  delivery_cost NUMERIC NOT NULL DEFAULT 0,
  amount NUMERIC NOT NULL,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

const orderItemsSchema = `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  total NUMERIC NOT NULL,
  created_at DATETIME
);`

const paymentsSchema = `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  method TEXT NOT NULL,
  bank_name TEXT,
  wallet_number TEXT,
  transaction_id TEXT,
  receiver_name TEXT,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
