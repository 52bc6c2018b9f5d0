package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/internal/inventory"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

// DiscountInput carries an optional product discount.
type DiscountInput struct {
	Type      enums.DiscountType
	Value     decimal.Decimal
	ExpiresAt *time.Time
}

// CreateProductInput carries the fields a new product needs.
type CreateProductInput struct {
	Name              string
	Description       *string
	Tags              []string
	UnitPrice         decimal.Decimal
	Discount          *DiscountInput
	StockQuantity     int
	LowStockThreshold *int
	ImageURL          *string
}

// UpdateProductInput carries partial product updates. Nil fields are left
// untouched; ClearDiscount removes the discount regardless of Discount.
type UpdateProductInput struct {
	Name              *string
	Description       *string
	Tags              []string
	UnitPrice         *decimal.Decimal
	Discount          *DiscountInput
	ClearDiscount     bool
	StockQuantity     *int
	LowStockThreshold *int
	ImageURL          *string
}

// Service defines catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, search string, status *enums.ProductStatus, tag string, page, limit int) ([]models.Product, pagination.Page, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	cfg  config.InventoryConfig
}

// NewService wires the catalog service.
func NewService(repo Repository, cfg config.InventoryConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitPrice.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if err := validateDiscount(input.Discount); err != nil {
		return nil, err
	}

	threshold := s.cfg.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		threshold = *input.LowStockThreshold
	}

	product := &models.Product{
		ID:                uuid.New(),
		Name:              name,
		Description:       input.Description,
		Tags:              pq.StringArray(input.Tags),
		UnitPrice:         input.UnitPrice,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: threshold,
		Status:            inventory.DeriveStatus(input.StockQuantity, threshold),
		ImageURL:          input.ImageURL,
	}
	if input.Discount != nil {
		discountType := input.Discount.Type
		discountValue := input.Discount.Value
		product.DiscountType = &discountType
		product.DiscountValue = &discountValue
		product.DiscountExpiresAt = input.Discount.ExpiresAt
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, search string, status *enums.ProductStatus, tag string, page, limit int) ([]models.Product, pagination.Page, error) {
	if status != nil && !status.IsValid() {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status filter")
	}
	page = pagination.NormalizePage(page)
	limit = pagination.NormalizeLimit(limit)

	rows, total, err := s.repo.List(ctx, ListFilter{
		Search: search,
		Status: status,
		Tag:    tag,
		Offset: pagination.Offset(page, limit),
		Limit:  limit,
	})
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, pagination.Paginate(page, limit, total), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateDiscount(input.Discount); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = input.Description
	}
	if input.Tags != nil {
		fields["tags"] = pq.StringArray(input.Tags)
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.Sign() <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
		fields["unit_price"] = *input.UnitPrice
	}
	if input.ImageURL != nil {
		fields["image_url"] = input.ImageURL
	}

	switch {
	case input.ClearDiscount:
		fields["discount_type"] = nil
		fields["discount_value"] = nil
		fields["discount_expires_at"] = nil
	case input.Discount != nil:
		fields["discount_type"] = input.Discount.Type
		fields["discount_value"] = input.Discount.Value
		fields["discount_expires_at"] = input.Discount.ExpiresAt
	}

	// Stock edits here are administrative restocks and corrections; order
	// traffic reserves and releases through the inventory tracker instead.
	stock := product.StockQuantity
	threshold := product.LowStockThreshold
	stockTouched := false
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		stock = *input.StockQuantity
		fields["stock_quantity"] = stock
		stockTouched = true
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		threshold = *input.LowStockThreshold
		fields["low_stock_threshold"] = threshold
		stockTouched = true
	}
	if stockTouched {
		fields["status"] = inventory.DeriveStatus(stock, threshold)
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func validateDiscount(discount *DiscountInput) error {
	if discount == nil {
		return nil
	}
	if !discount.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", discount.Type))
	}
	if discount.Value.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discount.Type == enums.DiscountTypePercentage && discount.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	return nil
}
