package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
)

// ErrNotFound reports a lookup that matched no customer row.
var ErrNotFound = errors.New("customers: not found")

// ListFilter narrows the customer listing.
type ListFilter struct {
	Search string // matches name or phone, case-insensitive
	Offset int
	Limit  int
}

// Repository manages persistence for customer records. Balance and payment
// status are owned by the ledger and never written here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetByAccessKeyHash(ctx context.Context, hash string) (*models.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, address *string) error
	SetAccessKey(ctx context.Context, id uuid.UUID, hash string, expiresAt time.Time) error
	List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return r.getBy(ctx, "phone = ?", phone)
}

func (r *repository) GetByAccessKeyHash(ctx context.Context, hash string) (*models.Customer, error) {
	return r.getBy(ctx, "access_key_hash = ?", hash)
}

func (r *repository) getBy(ctx context.Context, query string, arg any) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, address *string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "address": address})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetAccessKey(ctx context.Context, id uuid.UUID, hash string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_key_hash":       hash,
			"access_key_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Customer
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
