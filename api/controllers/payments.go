package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/api/responses"
	"github.com/caterbase/caterbase-backend/api/validators"
	paymentsvc "github.com/caterbase/caterbase-backend/internal/payments"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type paymentDetailsRequest struct {
	BankName      *string `json:"bank_name,omitempty"`
	WalletNumber  *string `json:"wallet_number,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
	ReceiverName  *string `json:"receiver_name,omitempty"`
}

func (req paymentDetailsRequest) toInput() paymentsvc.DetailsInput {
	return paymentsvc.DetailsInput{
		BankName:      req.BankName,
		WalletNumber:  req.WalletNumber,
		TransactionID: req.TransactionID,
		ReceiverName:  req.ReceiverName,
	}
}

type createPaymentRequest struct {
	CustomerID string                `json:"customer_id" validate:"required,uuid"`
	Amount     decimal.Decimal       `json:"amount" validate:"required"`
	Method     string                `json:"method" validate:"required"`
	Details    paymentDetailsRequest `json:"details"`
	Note       *string               `json:"note,omitempty"`
}

// PaymentCreate records money received and settles it against the customer
// balance in the same transaction.
func PaymentCreate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		payment, err := svc.Create(r.Context(), paymentsvc.CreatePaymentInput{
			CustomerID: customerID,
			Amount:     payload.Amount,
			Method:     method,
			Details:    payload.Details.toInput(),
			Note:       payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentFromModel(payment))
	}
}

// PaymentDetail returns one payment record.
func PaymentDetail(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentFromModel(payment))
	}
}

// PaymentList returns payments narrowed by customer, method and creation
// window.
func PaymentList(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
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

		var filter paymentsvc.ListFilter
		if filter.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
			method, err := enums.ParsePaymentMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			filter.Method = &method
		}
		if filter.CreatedFrom, err = validators.ParseQueryTime(r, "createdFrom"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.CreatedTo, err = validators.ParseQueryTime(r, "createdTo"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, pageInfo, err := svc.List(r.Context(), filter, page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, paymentsFromModels(rows), pageInfo)
	}
}

type updatePaymentRequest struct {
	Amount  decimal.Decimal       `json:"amount" validate:"required"`
	Method  string                `json:"method" validate:"required"`
	Details paymentDetailsRequest `json:"details"`
	Note    *string               `json:"note,omitempty"`
}

// PaymentUpdate rewrites a payment and moves the balance by the amount
// difference.
func PaymentUpdate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		payment, err := svc.Update(r.Context(), id, paymentsvc.UpdatePaymentInput{
			Amount:  payload.Amount,
			Method:  method,
			Details: payload.Details.toInput(),
			Note:    payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentFromModel(payment))
	}
}

// PaymentDelete removes a payment and restores its amount to the balance.
func PaymentDelete(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "paymentId")
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
