package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/metrics"
)

// DerivePaymentStatus maps a signed balance to the customer payment status.
// A negative balance means the customer overpaid; the status keeps its
// historical name "pending" for API compatibility.
func DerivePaymentStatus(balance decimal.Decimal) enums.CustomerPaymentStatus {
	switch balance.Sign() {
	case 0:
		return enums.CustomerPaymentStatusPaid
	case 1:
		return enums.CustomerPaymentStatusPartiallyPaid
	default:
		return enums.CustomerPaymentStatusPending
	}
}

// Service is the only write path to customer balances. Order mutations push
// positive deltas (the customer owes more), payment mutations push negative
// ones.
type Service interface {
	ApplyOrderDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error
	ApplyPaymentDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error
	Audit(ctx context.Context, customerID uuid.UUID) (*AuditReport, error)
	AuditAll(ctx context.Context) ([]AuditReport, error)
}

// AuditReport compares a stored balance against the balance recomputed from
// the order and payment tables.
type AuditReport struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Drift           decimal.Decimal `json:"drift"`
}

// InSync reports whether the stored balance matches the recomputed one.
func (r AuditReport) InSync() bool {
	return r.Drift.IsZero()
}

type service struct {
	repo Repository
	logg *logger.Logger
	ops  *metrics.OpsMetrics
}

// NewService wires the ledger service with its repository. Logger and metrics
// are optional.
func NewService(repo Repository, logg *logger.Logger, ops *metrics.OpsMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, logg: logg, ops: ops}, nil
}

func (s *service) ApplyOrderDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error {
	return s.apply(ctx, tx, customerID, delta, "order")
}

func (s *service) ApplyPaymentDelta(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal) error {
	return s.apply(ctx, tx, customerID, delta, "payment")
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta decimal.Decimal, operation string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if delta.IsZero() {
		return nil
	}

	err := s.repo.WithTx(tx).ApplyDelta(ctx, customerID, delta)
	if errors.Is(err, ErrCustomerGone) {
		s.ops.IncOperation(operation, "missing_customer")
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		s.ops.IncOperation(operation, "failure")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply balance delta")
	}
	s.ops.IncOperation(operation, "success")
	return nil
}

func (s *service) Audit(ctx context.Context, customerID uuid.UUID) (*AuditReport, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if errors.Is(err, ErrCustomerGone) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer for audit")
	}

	ordersTotal, err := s.repo.SumOrders(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum orders for audit")
	}
	paymentsTotal, err := s.repo.SumPayments(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments for audit")
	}

	expected := ordersTotal.Sub(paymentsTotal)
	report := &AuditReport{
		CustomerID:      customerID,
		StoredBalance:   customer.Balance,
		ExpectedBalance: expected,
		Drift:           customer.Balance.Sub(expected),
	}
	if !report.InSync() {
		s.ops.IncDrift("audit")
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCustomerID(ctx, customerID.String()),
				fmt.Sprintf("balance drift detected: stored %s, expected %s",
					report.StoredBalance.StringFixed(2), report.ExpectedBalance.StringFixed(2)))
		}
	}
	return report, nil
}

// AuditAll audits every customer. Per-customer failures are collected so one
// broken row does not hide drift elsewhere.
func (s *service) AuditAll(ctx context.Context) ([]AuditReport, error) {
	ids, err := s.repo.ListCustomerIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers for audit")
	}

	reports := make([]AuditReport, 0, len(ids))
	var errs error
	for _, id := range ids {
		report, auditErr := s.Audit(ctx, id)
		if auditErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("customer %s: %w", id, auditErr))
			continue
		}
		reports = append(reports, *report)
	}
	return reports, errs
}
