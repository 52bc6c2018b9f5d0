package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/api/responses"
	"github.com/caterbase/caterbase-backend/api/validators"
	catalogsvc "github.com/caterbase/caterbase-backend/internal/catalog"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type discountRequest struct {
	Type      string          `json:"type" validate:"required"`
	Value     decimal.Decimal `json:"value" validate:"required"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func (req *discountRequest) toInput() (*catalogsvc.DiscountInput, error) {
	if req == nil {
		return nil, nil
	}
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(req.Type))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	return &catalogsvc.DiscountInput{
		Type:      discountType,
		Value:     req.Value,
		ExpiresAt: req.ExpiresAt,
	}, nil
}

type createProductRequest struct {
	Name              string           `json:"name" validate:"required"`
	Description       *string          `json:"description,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	UnitPrice         decimal.Decimal  `json:"unit_price" validate:"required"`
	Discount          *discountRequest `json:"discount,omitempty"`
	StockQuantity     int              `json:"stock_quantity" validate:"min=0"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	ImageURL          *string          `json:"image_url,omitempty"`
}

// ProductCreate adds a catalog item; status is derived from the initial
// stock.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := payload.Discount.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), catalogsvc.CreateProductInput{
			Name:              validators.SanitizeString(payload.Name, 200),
			Description:       payload.Description,
			Tags:              payload.Tags,
			UnitPrice:         payload.UnitPrice,
			Discount:          discount,
			StockQuantity:     payload.StockQuantity,
			LowStockThreshold: payload.LowStockThreshold,
			ImageURL:          payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, productFromModel(product))
	}
}

// ProductDetail returns one catalog item.
func ProductDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productFromModel(product))
	}
}

// ProductList returns catalog items narrowed by search, status and tag.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.ProductStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		search := validators.SanitizeString(r.URL.Query().Get("search"), 200)
		tag := validators.SanitizeString(r.URL.Query().Get("tag"), 100)

		rows, pageInfo, err := svc.List(r.Context(), search, status, tag, page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, productsFromModels(rows), pageInfo)
	}
}

type updateProductRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	Discount          *discountRequest `json:"discount,omitempty"`
	ClearDiscount     bool             `json:"clear_discount,omitempty"`
	StockQuantity     *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	ImageURL          *string          `json:"image_url,omitempty"`
}

// ProductUpdate patches catalog fields. Stock edits here are administrative
// restocks; status is recomputed when stock or threshold changes.
func ProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := payload.Discount.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, catalogsvc.UpdateProductInput{
			Name:              payload.Name,
			Description:       payload.Description,
			Tags:              payload.Tags,
			UnitPrice:         payload.UnitPrice,
			Discount:          discount,
			ClearDiscount:     payload.ClearDiscount,
			StockQuantity:     payload.StockQuantity,
			LowStockThreshold: payload.LowStockThreshold,
			ImageURL:          payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productFromModel(product))
	}
}

// ProductDelete removes a catalog item.
func ProductDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
