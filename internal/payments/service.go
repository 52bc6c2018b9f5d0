package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerWriter interface {
	ApplyPaymentDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error
}

// DetailsInput carries the method-specific transaction details. Exactly the
// fields the chosen method needs may be set.
type DetailsInput struct {
	BankName      *string
	WalletNumber  *string
	TransactionID *string
	ReceiverName  *string
}

// CreatePaymentInput records money received from a customer.
type CreatePaymentInput struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Method     enums.PaymentMethod
	Details    DetailsInput
	Note       *string
}

// UpdatePaymentInput rewrites a payment's amount, method and details.
type UpdatePaymentInput struct {
	Amount  decimal.Decimal
	Method  enums.PaymentMethod
	Details DetailsInput
	Note    *string
}

// Service reconciles payment records with the customer balance ledger.
type Service interface {
	Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, filter ListFilter, page, limit int) ([]models.Payment, pagination.Page, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePaymentInput) (*models.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	ledger ledgerWriter
	tx     txRunner
	logg   *logger.Logger
}

// NewService wires the payment service. Logger is optional.
func NewService(repo Repository, ledger ledgerWriter, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger writer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ledger: ledger, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	details, err := validateDetails(input.Method, input.Details)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		CustomerID:    input.CustomerID,
		Amount:        input.Amount,
		Method:        input.Method,
		BankName:      details.BankName,
		WalletNumber:  details.WalletNumber,
		TransactionID: details.TransactionID,
		ReceiverName:  details.ReceiverName,
		Note:          input.Note,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
		}
		// Money received lowers what the customer owes. A payment against an
		// unknown customer is rejected at create time.
		return s.ledger.ApplyPaymentDelta(ctx, tx, input.CustomerID, input.Amount.Neg())
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page, limit int) ([]models.Payment, pagination.Page, error) {
	page = pagination.NormalizePage(page)
	limit = pagination.NormalizeLimit(limit)
	filter.Offset = pagination.Offset(page, limit)
	filter.Limit = limit

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, pagination.Paginate(page, limit, total), nil
}

// Update rewrites the payment and moves the customer balance by the amount
// difference: shrinking a 100 payment to 60 puts 40 back on what the
// customer owes.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePaymentInput) (*models.Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	details, err := validateDetails(input.Method, input.Details)
	if err != nil {
		return nil, err
	}

	delta := payment.Amount.Sub(input.Amount)

	payment.Amount = input.Amount
	payment.Method = input.Method
	payment.BankName = details.BankName
	payment.WalletNumber = details.WalletNumber
	payment.TransactionID = details.TransactionID
	payment.ReceiverName = details.ReceiverName
	payment.Note = input.Note

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		return s.applyDeltaTolerant(ctx, tx, payment.CustomerID, delta)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete removes the payment and puts its amount back on the balance.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment")
		}
		return s.applyDeltaTolerant(ctx, tx, payment.CustomerID, payment.Amount)
	})
}

// applyDeltaTolerant applies the delta but tolerates a customer row that has
// since been removed: the payment record change still goes through, with a
// warning, so historical cleanup is not blocked.
func (s *service) applyDeltaTolerant(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error {
	err := s.ledger.ApplyPaymentDelta(ctx, tx, customerID, delta)
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCustomerID(ctx, customerID.String()),
				"payment mutation against a deleted customer, balance not adjusted")
		}
		return nil
	}
	return err
}

func validateDetails(method enums.PaymentMethod, input DetailsInput) (DetailsInput, error) {
	if !method.IsValid() {
		return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}

	has := func(field *string) bool {
		return field != nil && strings.TrimSpace(*field) != ""
	}

	switch method {
	case enums.PaymentMethodBank:
		if !has(input.TransactionID) || !has(input.BankName) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				"bank payments require a transaction id and bank name")
		}
		if has(input.WalletNumber) || has(input.ReceiverName) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				"bank payments accept only bank details")
		}
		return DetailsInput{TransactionID: input.TransactionID, BankName: input.BankName}, nil
	case enums.PaymentMethodBkash, enums.PaymentMethodNagad:
		if !has(input.TransactionID) || !has(input.WalletNumber) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s payments require a transaction id and wallet number", method))
		}
		if has(input.BankName) || has(input.ReceiverName) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s payments accept only wallet details", method))
		}
		return DetailsInput{TransactionID: input.TransactionID, WalletNumber: input.WalletNumber}, nil
	case enums.PaymentMethodCash:
		if !has(input.ReceiverName) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				"cash payments require a receiver name")
		}
		if has(input.TransactionID) || has(input.BankName) || has(input.WalletNumber) {
			return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation,
				"cash payments accept only a receiver name")
		}
		return DetailsInput{ReceiverName: input.ReceiverName}, nil
	}
	return DetailsInput{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
}
