package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/api/responses"
	"github.com/caterbase/caterbase-backend/api/validators"
	ordersvc "github.com/caterbase/caterbase-backend/internal/orders"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerPhone   string             `json:"customer_phone" validate:"required"`
	CustomerAddress *string            `json:"customer_address,omitempty"`
	DeliveryAddress string             `json:"delivery_address" validate:"required"`
	DeliveryCost    *decimal.Decimal   `json:"delivery_cost,omitempty"`
	Note            *string            `json:"note,omitempty"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req createOrderRequest) toInput() (ordersvc.CreateOrderInput, error) {
	items, err := toItemInputs(req.Items)
	if err != nil {
		return ordersvc.CreateOrderInput{}, err
	}

	deliveryCost := decimal.Zero
	if req.DeliveryCost != nil {
		deliveryCost = *req.DeliveryCost
	}

	return ordersvc.CreateOrderInput{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: req.CustomerAddress,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		DeliveryCost:    deliveryCost,
		Note:            req.Note,
		Items:           items,
	}, nil
}

func toItemInputs(items []orderItemRequest) ([]ordersvc.ItemInput, error) {
	result := make([]ordersvc.ItemInput, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		result = append(result, ordersvc.ItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	return result, nil
}

// OrderCreate prices, reserves and persists a new order atomically.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actorFromContext(r.Context())

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orderFromModel(order))
	}
}

// OrderDetail returns one order with its item snapshots.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderFromModel(order))
	}
}

// OrderList returns orders narrowed by status, payment status, customer,
// product, amount range, creation window and free-text search.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		filter, err := orderFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, pageInfo, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, ordersFromModels(rows), pageInfo)
	}
}

func orderFilterFromQuery(r *http.Request) (ordersvc.ListFilter, error) {
	var filter ordersvc.ListFilter

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return filter, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filter, err
	}
	filter.Page = page
	filter.Limit = limit
	filter.Search = validators.SanitizeString(r.URL.Query().Get("search"), 200)

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("paymentStatus")); raw != "" {
		status, err := enums.ParseOrderPaymentStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		filter.PaymentStatus = &status
	}

	if filter.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
		return filter, err
	}
	if filter.ProductID, err = validators.ParseQueryUUID(r, "productId"); err != nil {
		return filter, err
	}
	if filter.AmountMin, err = validators.ParseQueryDecimal(r, "amountMin"); err != nil {
		return filter, err
	}
	if filter.AmountMax, err = validators.ParseQueryDecimal(r, "amountMax"); err != nil {
		return filter, err
	}
	if filter.CreatedFrom, err = validators.ParseQueryTime(r, "createdFrom"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = validators.ParseQueryTime(r, "createdTo"); err != nil {
		return filter, err
	}

	return filter, nil
}

type updateOrderRequest struct {
	Status          *string          `json:"status,omitempty"`
	PaymentStatus   *string          `json:"payment_status,omitempty"`
	DeliveryAddress *string          `json:"delivery_address,omitempty"`
	DeliveryCost    *decimal.Decimal `json:"delivery_cost,omitempty"`
	Note            *string          `json:"note,omitempty"`
}

// OrderUpdate patches header fields. A delivery cost change re-prices the
// order and moves the customer balance.
func OrderUpdate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.UpdateFieldsInput{
			DeliveryAddress: payload.DeliveryAddress,
			DeliveryCost:    payload.DeliveryCost,
			Note:            payload.Note,
		}
		if payload.Status != nil {
			status, err := enums.ParseOrderStatus(strings.TrimSpace(*payload.Status))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if payload.PaymentStatus != nil {
			status, err := enums.ParseOrderPaymentStatus(strings.TrimSpace(*payload.PaymentStatus))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			input.PaymentStatus = &status
		}

		order, err := svc.UpdateFields(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderFromModel(order))
	}
}

type updateOrderItemsRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderUpdateItems replaces the item list, keeping stored price snapshots
// for retained products.
func OrderUpdateItems(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := toItemInputs(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateItems(r.Context(), id, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderFromModel(order))
	}
}

// OrderDelete removes an order and reverses its balance contribution.
func OrderDelete(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "orderId")
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
