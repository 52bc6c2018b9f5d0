package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
	"github.com/caterbase/caterbase-backend/pkg/pagination"
	"github.com/caterbase/caterbase-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	AccountCreated(ctx context.Context, tx *gorm.DB, customer *models.Customer, actor *outbox.ActorRef) error
	PaymentReminder(ctx context.Context, tx *gorm.DB, customer *models.Customer, actor *outbox.ActorRef) error
}

// RegisterInput carries the fields a new customer record needs.
type RegisterInput struct {
	Name    string
	Phone   string
	Address *string
	Actor   *outbox.ActorRef
}

// AccessKeyGrant is returned once per issuance; the plaintext key is never
// stored or recoverable afterwards.
type AccessKeyGrant struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service defines customer account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	ResolveOrCreate(ctx context.Context, tx *gorm.DB, input RegisterInput) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, search string, page, limit int) ([]models.Customer, pagination.Page, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, address *string) error
	IssueAccessKey(ctx context.Context, id uuid.UUID) (*AccessKeyGrant, error)
	AuthenticateAccessKey(ctx context.Context, key string) (*models.Customer, error)
	RemindPayment(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
}

type keyGenerator func() (plaintext, hash string, err error)

type keyHasher func(plaintext string) string

type service struct {
	repo    Repository
	tx      txRunner
	notify  notifier
	cfg     config.AccessKeyConfig
	logg    *logger.Logger
	now     func() time.Time
	genKey  keyGenerator
	hashKey keyHasher
}

// NewService wires the customer service with its collaborators.
func NewService(repo Repository, tx txRunner, notify notifier, cfg config.AccessKeyConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		notify: notify,
		cfg:    cfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	customer, err := buildCustomer(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, customer); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}
		return s.notify.AccountCreated(ctx, tx, customer, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID.String()), "customer registered")
	}
	return customer, nil
}

// ResolveOrCreate finds the customer owning the phone number, creating the
// account when none exists. It runs inside the caller's transaction so an
// aborted order does not leave a half-registered customer behind.
func (s *service) ResolveOrCreate(ctx context.Context, tx *gorm.DB, input RegisterInput) (*models.Customer, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.GetByPhone(ctx, phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer by phone")
	}

	customer, err := buildCustomer(input)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			// Lost a race with a concurrent create for the same phone.
			return repo.GetByPhone(ctx, phone)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	if err := s.notify.AccountCreated(ctx, tx, customer, input.Actor); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, search string, page, limit int) ([]models.Customer, pagination.Page, error) {
	page = pagination.NormalizePage(page)
	limit = pagination.NormalizeLimit(limit)

	rows, total, err := s.repo.List(ctx, ListFilter{
		Search: search,
		Offset: pagination.Offset(page, limit),
		Limit:  limit,
	})
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, pagination.Paginate(page, limit, total), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, name string, address *string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	err := s.repo.UpdateProfile(ctx, id, name, address)
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return nil
}

// IssueAccessKey mints a fresh self-service key. Storing the new hash
// invalidates whatever key was active before: a customer holds at most one
// working key at a time.
func (s *service) IssueAccessKey(ctx context.Context, id uuid.UUID) (*AccessKeyGrant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	plaintext, hash, err := s.generateKey()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate access key")
	}

	expiresAt := s.now().Add(s.cfg.TTL())
	err = s.repo.SetAccessKey(ctx, id, hash, expiresAt)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store access key")
	}
	return &AccessKeyGrant{Key: plaintext, ExpiresAt: expiresAt}, nil
}

// AuthenticateAccessKey resolves a presented key to its customer. Both the
// stored hash and a live expiry are required; a matching hash with a lapsed
// expiry is rejected the same way as an unknown key.
func (s *service) AuthenticateAccessKey(ctx context.Context, key string) (*models.Customer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access key required")
	}

	customer, err := s.repo.GetByAccessKeyHash(ctx, s.hashAccessKey(key))
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access key")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup access key")
	}
	if customer.AccessKeyExpiresAt == nil || !customer.AccessKeyExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access key expired")
	}
	return customer, nil
}

// RemindPayment queues a payment reminder for a customer who still owes.
func (s *service) RemindPayment(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if customer.Balance.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "customer has no outstanding balance")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.notify.PaymentReminder(ctx, tx, customer, actor)
	})
}

func (s *service) generateKey() (string, string, error) {
	if s.genKey != nil {
		return s.genKey()
	}
	return security.GenerateAccessKey()
}

func (s *service) hashAccessKey(key string) string {
	if s.hashKey != nil {
		return s.hashKey(key)
	}
	return security.HashAccessKey(key)
}

func buildCustomer(input RegisterInput) (*models.Customer, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	return &models.Customer{
		ID:      uuid.New(),
		Name:    name,
		Phone:   phone,
		Address: input.Address,
	}, nil
}
