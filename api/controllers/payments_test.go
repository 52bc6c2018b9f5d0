package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymentsvc "github.com/caterbase/caterbase-backend/internal/payments"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type stubPaymentService struct {
	created *paymentsvc.CreatePaymentInput
	payment *models.Payment
	err     error
}

func (s *stubPaymentService) Create(_ context.Context, input paymentsvc.CreatePaymentInput) (*models.Payment, error) {
	s.created = &input
	return s.payment, s.err
}

func (s *stubPaymentService) Get(context.Context, uuid.UUID) (*models.Payment, error) {
	return s.payment, s.err
}

func (s *stubPaymentService) List(context.Context, paymentsvc.ListFilter, int, int) ([]models.Payment, pagination.Page, error) {
	return []models.Payment{*s.payment}, pagination.Paginate(1, 10, 1), s.err
}

func (s *stubPaymentService) Update(context.Context, uuid.UUID, paymentsvc.UpdatePaymentInput) (*models.Payment, error) {
	return s.payment, s.err
}

func (s *stubPaymentService) Delete(context.Context, uuid.UUID) error { return s.err }

func TestPaymentCreate(t *testing.T) {
	customerID := uuid.New()
	stub := &stubPaymentService{payment: &models.Payment{
		ID:         uuid.New(),
		CustomerID: customerID,
		Amount:     decimal.NewFromInt(500),
		Method:     enums.PaymentMethodBkash,
	}}

	body := `{
		"customer_id": "` + customerID.String() + `",
		"amount": "500",
		"method": "bkash",
		"details": {"transaction_id": "TX123", "wallet_number": "01711111111"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PaymentCreate(stub, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.created == nil {
		t.Fatal("expected Create to be invoked")
	}
	if stub.created.Method != enums.PaymentMethodBkash {
		t.Fatalf("unexpected method %s", stub.created.Method)
	}
	if stub.created.Details.TransactionID == nil || *stub.created.Details.TransactionID != "TX123" {
		t.Fatalf("unexpected details %+v", stub.created.Details)
	}
}

func TestPaymentCreateRejectsUnknownMethod(t *testing.T) {
	stub := &stubPaymentService{payment: &models.Payment{ID: uuid.New()}}
	body := `{"customer_id":"` + uuid.NewString() + `","amount":"500","method":"cheque","details":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PaymentCreate(stub, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if stub.created != nil {
		t.Fatal("service must not be reached for unknown methods")
	}
}

func TestPaymentCreateSurfacesDetailErrors(t *testing.T) {
	stub := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeValidation, "bank payments need a transaction id")}
	body := `{"customer_id":"` + uuid.NewString() + `","amount":"500","method":"bank","details":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PaymentCreate(stub, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPaymentListRejectsBadMethodFilter(t *testing.T) {
	stub := &stubPaymentService{payment: &models.Payment{ID: uuid.New()}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?method=cheque", nil)
	rec := httptest.NewRecorder()
	PaymentList(stub, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
