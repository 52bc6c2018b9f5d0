package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/internal/catalog"
	"github.com/caterbase/caterbase-backend/internal/customers"
	"github.com/caterbase/caterbase-backend/internal/pricing"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/metrics"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerResolver interface {
	ResolveOrCreate(ctx context.Context, tx *gorm.DB, input customers.RegisterInput) (*models.Customer, error)
}

type stockTracker interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type ledgerWriter interface {
	ApplyOrderDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error
}

type notifier interface {
	OrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor *outbox.ActorRef) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, pagination.Page, error)
	UpdateFields(ctx context.Context, id uuid.UUID, input UpdateFieldsInput) (*models.Order, error)
	UpdateItems(ctx context.Context, id uuid.UUID, items []ItemInput) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      Repository
	products  catalog.Repository
	customers customerResolver
	inventory stockTracker
	ledger    ledgerWriter
	notify    notifier
	tx        txRunner
	cfg       config.OrdersConfig
	logg      *logger.Logger
	ops       *metrics.OpsMetrics
	now       func() time.Time
}

// NewService wires the order service with its collaborators. Logger and
// metrics are optional.
func NewService(
	repo Repository,
	products catalog.Repository,
	resolver customerResolver,
	tracker stockTracker,
	ledger ledgerWriter,
	notify notifier,
	tx txRunner,
	cfg config.OrdersConfig,
	logg *logger.Logger,
	ops *metrics.OpsMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("stock tracker required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger writer required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		products:  products,
		customers: resolver,
		inventory: tracker,
		ledger:    ledger,
		notify:    notify,
		tx:        tx,
		cfg:       cfg,
		logg:      logg,
		ops:       ops,
		now:       time.Now,
	}, nil
}

// Create builds a new order in a single transaction: resolve the customer,
// snapshot prices, reserve stock for every line, persist the order, push the
// amount onto the customer balance. Any failure rolls the whole thing back,
// so a half-reserved order can never be observed.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.customers.ResolveOrCreate(ctx, tx, customers.RegisterInput{
			Name:    input.CustomerName,
			Phone:   input.CustomerPhone,
			Address: input.CustomerAddress,
			Actor:   input.Actor,
		})
		if err != nil {
			return err
		}

		items, itemsTotal, err := s.snapshotItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		var reserveErrs error
		for _, item := range items {
			if err := s.inventory.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				// Keep going so the caller sees every shortage at once.
				reserveErrs = multierr.Append(reserveErrs, err)
			}
		}
		if reserveErrs != nil {
			s.ops.IncRollback(rollbackReason(reserveErrs))
			return reservationError(reserveErrs)
		}

		order = &models.Order{
			ID:              uuid.New(),
			CustomerID:      customer.ID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.OrderPaymentStatusUnpaid,
			DeliveryAddress: input.DeliveryAddress,
			DeliveryCost:    input.DeliveryCost,
			Amount:          itemsTotal.Add(input.DeliveryCost),
			Note:            input.Note,
			Items:           items,
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		if err := s.ledger.ApplyOrderDelta(ctx, tx, customer.ID, order.Amount); err != nil {
			return err
		}
		return s.notify.OrderCreated(ctx, tx, order, input.Actor)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, pagination.Page, error) {
	page := pagination.NormalizePage(filter.Page)
	limit := pagination.NormalizeLimit(filter.Limit)

	rows, total, err := s.repo.List(ctx, filter, pagination.Offset(page, limit), limit)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, pagination.Paginate(page, limit, total), nil
}

func (s *service) UpdateFields(ctx context.Context, id uuid.UUID, input UpdateFieldsInput) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
		}
		if order.Status.IsTerminal() && *input.Status != order.Status {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is already %s", order.Status))
		}
		fields["status"] = *input.Status
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
		}
		fields["payment_status"] = *input.PaymentStatus
	}
	if input.DeliveryAddress != nil {
		if *input.DeliveryAddress == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address cannot be empty")
		}
		fields["delivery_address"] = *input.DeliveryAddress
	}
	if input.Note != nil {
		fields["note"] = input.Note
	}

	// A delivery cost change re-prices the order, so the customer balance
	// moves by the difference inside the same transaction.
	var amountDelta decimal.Decimal
	if input.DeliveryCost != nil {
		if input.DeliveryCost.Sign() < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery cost cannot be negative")
		}
		amountDelta = input.DeliveryCost.Sub(order.DeliveryCost)
		fields["delivery_cost"] = *input.DeliveryCost
		fields["amount"] = order.Amount.Add(amountDelta)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateFields(ctx, id, fields); err != nil {
			if errors.Is(err, ErrNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if !amountDelta.IsZero() {
			return s.ledger.ApplyOrderDelta(ctx, tx, order.CustomerID, amountDelta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateItems replaces the order's full line-item list. Lines for products
// already on the order keep their stored snapshot prices; lines for new
// products are priced at today's catalog price. Stock is not re-touched; the
// amount difference moves the customer balance.
func (s *service) UpdateItems(ctx context.Context, id uuid.UUID, items []ItemInput) (*models.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	retained := make(map[uuid.UUID]models.OrderItem, len(order.Items))
	for _, existing := range order.Items {
		retained[existing.ProductID] = existing
	}

	var newProductIDs []uuid.UUID
	for _, item := range items {
		if _, ok := retained[item.ProductID]; !ok {
			newProductIDs = append(newProductIDs, item.ProductID)
		}
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.products.WithTx(tx).GetByIDs(ctx, newProductIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(loaded))
		for _, product := range loaded {
			byID[product.ID] = product
		}

		now := s.now()
		replacement := make([]models.OrderItem, 0, len(items))
		itemsTotal := decimal.Zero
		for _, item := range items {
			var snapshot models.OrderItem
			if existing, ok := retained[item.ProductID]; ok {
				snapshot = models.OrderItem{
					ID:        uuid.New(),
					OrderID:   order.ID,
					ProductID: existing.ProductID,
					Name:      existing.Name,
					UnitPrice: existing.UnitPrice,
				}
			} else {
				product, ok := byID[item.ProductID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("product %s not found", item.ProductID))
				}
				snapshot = models.OrderItem{
					ID:        uuid.New(),
					OrderID:   order.ID,
					ProductID: product.ID,
					Name:      product.Name,
					UnitPrice: pricing.FinalPrice(product.UnitPrice, pricing.DiscountFromProduct(&product), now),
				}
			}
			snapshot.Quantity = item.Quantity
			snapshot.Total = pricing.LineTotal(snapshot.UnitPrice, item.Quantity)
			itemsTotal = itemsTotal.Add(snapshot.Total)
			replacement = append(replacement, snapshot)
		}

		newAmount := itemsTotal.Add(order.DeliveryCost)
		delta := newAmount.Sub(order.Amount)

		updated = &models.Order{ID: order.ID, Amount: newAmount}
		if err := s.repo.WithTx(tx).ReplaceItems(ctx, updated, replacement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
		}
		if !delta.IsZero() {
			return s.ledger.ApplyOrderDelta(ctx, tx, order.CustomerID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the order and reverses its amount on the customer balance.
// Reserved stock is only returned when the release-on-delete switch is set;
// historically deleted orders were usually already prepared and shipped.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if err := s.ledger.ApplyOrderDelta(ctx, tx, order.CustomerID, order.Amount.Neg()); err != nil {
			return err
		}
		if s.cfg.ReleaseStockOnDelete {
			for _, item := range order.Items {
				if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// snapshotItems freezes name, unit price and line total for every requested
// line at today's effective price.
func (s *service) snapshotItems(ctx context.Context, tx *gorm.DB, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		ids = append(ids, item.ProductID)
	}

	loaded, err := s.products.WithTx(tx).GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(loaded))
	for _, product := range loaded {
		byID[product.ID] = product
	}

	now := s.now()
	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, input := range inputs {
		product, ok := byID[input.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found", input.ProductID))
		}
		unitPrice := pricing.FinalPrice(product.UnitPrice, pricing.DiscountFromProduct(&product), now)
		lineTotal := pricing.LineTotal(unitPrice, input.Quantity)
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Quantity:  input.Quantity,
			Total:     lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func validateCreate(input CreateOrderInput) error {
	if input.CustomerPhone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if input.CustomerName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if input.DeliveryAddress == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if input.DeliveryCost.Sign() < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery cost cannot be negative")
	}
	return validateItems(input.Items)
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	// The same product may appear on several lines; each line is priced and
	// reserved on its own.
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return nil
}

// rollbackReason picks the metrics label for an aborted create.
func rollbackReason(err error) string {
	for _, single := range multierr.Errors(err) {
		if typed := pkgerrors.As(single); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			return "insufficient_stock"
		}
	}
	return "reserve_failed"
}

// reservationError folds the per-line failures into one typed error. When any
// line was short on stock the whole create reports insufficient stock.
func reservationError(err error) error {
	var details []any
	insufficient := false
	for _, single := range multierr.Errors(err) {
		if typed := pkgerrors.As(single); typed != nil {
			if typed.Code() == pkgerrors.CodeInsufficientStock {
				insufficient = true
			}
			if typed.Details() != nil {
				details = append(details, typed.Details())
			}
			continue
		}
	}
	if !insufficient {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	typed := pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "not enough stock for one or more items")
	if len(details) > 0 {
		typed = typed.WithDetails(details)
	}
	return typed
}
