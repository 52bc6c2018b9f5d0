package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
	"github.com/caterbase/caterbase-backend/pkg/security"
)

type fakeNotifier struct {
	accountCreated []uuid.UUID
	reminders      []uuid.UUID
}

func (f *fakeNotifier) AccountCreated(_ context.Context, _ *gorm.DB, customer *models.Customer, _ *outbox.ActorRef) error {
	f.accountCreated = append(f.accountCreated, customer.ID)
	return nil
}

func (f *fakeNotifier) PaymentReminder(_ context.Context, _ *gorm.DB, customer *models.Customer, _ *outbox.ActorRef) error {
	f.reminders = append(f.reminders, customer.ID)
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	notify := &fakeNotifier{}
	svc := newTestService(t, db, notify)
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{Name: "Karim Uddin", Phone: "01711112222"})
	require.NoError(t, err)
	assert.Equal(t, "Karim Uddin", customer.Name)
	require.Len(t, notify.accountCreated, 1)
	assert.Equal(t, customer.ID, notify.accountCreated[0])

	// New customers start settled.
	stored, err := svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero())
	assert.Equal(t, enums.CustomerPaymentStatusPaid, stored.PaymentStatus)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Someone Else", Phone: "01711112222"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), &fakeNotifier{})

	_, err := svc.Register(context.Background(), RegisterInput{Phone: "01711112222"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Karim"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestResolveOrCreate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	notify := &fakeNotifier{}
	svc := newTestService(t, db, notify)
	ctx := context.Background()

	created, err := svc.ResolveOrCreate(ctx, db, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)
	require.Len(t, notify.accountCreated, 1)

	resolved, err := svc.ResolveOrCreate(ctx, db, RegisterInput{Name: "Different Name", Phone: "01711112222"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
	assert.Equal(t, "Karim", resolved.Name, "existing record wins over the submitted name")
	assert.Len(t, notify.accountCreated, 1, "no second account event")
}

func TestAccessKeyLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeNotifier{})
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)

	grant, err := svc.IssueAccessKey(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, grant.Key, 64)
	assert.True(t, grant.ExpiresAt.After(time.Now()))

	authed, err := svc.AuthenticateAccessKey(ctx, grant.Key)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, authed.ID)

	// Re-issuing invalidates the previous key.
	fresh, err := svc.IssueAccessKey(ctx, customer.ID)
	require.NoError(t, err)
	assert.NotEqual(t, grant.Key, fresh.Key)

	_, err = svc.AuthenticateAccessKey(ctx, grant.Key)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err = svc.AuthenticateAccessKey(ctx, fresh.Key)
	require.NoError(t, err)
}

func TestAuthenticateExpiredKey(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeNotifier{})
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)
	grant, err := svc.IssueAccessKey(ctx, customer.ID)
	require.NoError(t, err)

	// Push the stored expiry into the past; the hash still matches.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("access_key_expires_at", past).Error)

	_, err = svc.AuthenticateAccessKey(ctx, grant.Key)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestAuthenticateUnknownKey(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), &fakeNotifier{})
	plaintext, _, err := security.GenerateAccessKey()
	require.NoError(t, err)

	_, err = svc.AuthenticateAccessKey(context.Background(), plaintext)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRemindPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	notify := &fakeNotifier{}
	svc := newTestService(t, db, notify)
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)

	err = svc.RemindPayment(ctx, customer.ID, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code(), "nothing owed yet")

	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"balance":        decimal.NewFromInt(300),
			"payment_status": enums.CustomerPaymentStatusPartiallyPaid,
		}).Error)

	require.NoError(t, svc.RemindPayment(ctx, customer.ID, nil))
	require.Len(t, notify.reminders, 1)
	assert.Equal(t, customer.ID, notify.reminders[0])
}

func TestListSearchAndPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeNotifier{})
	ctx := context.Background()

	names := []string{"Karim Uddin", "Karim Traders", "Salma Begum"}
	for i, name := range names {
		_, err := svc.Register(ctx, RegisterInput{Name: name, Phone: "0171111000" + string(rune('0'+i))})
		require.NoError(t, err)
	}

	rows, page, err := svc.List(ctx, "karim", 1, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(2), page.Total)

	rows, page, err = svc.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeNotifier{})
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterInput{Name: "Karim", Phone: "01711112222"})
	require.NoError(t, err)

	address := "45 Banani Road, Dhaka"
	require.NoError(t, svc.UpdateProfile(ctx, customer.ID, "Karim Uddin", &address))

	stored, err := svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karim Uddin", stored.Name)
	require.NotNil(t, stored.Address)
	assert.Equal(t, address, *stored.Address)

	err = svc.UpdateProfile(ctx, uuid.New(), "Nobody", nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func newTestService(t *testing.T, db *gorm.DB, notify *fakeNotifier) Service {
	t.Helper()
	cfg := config.AccessKeyConfig{TTLMinutes: 60}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, notify, cfg, nil)
	require.NoError(t, err)
	return svc
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  address TEXT,
  balance NUMERIC NOT NULL DEFAULT 0,
  payment_status TEXT NOT NULL DEFAULT 'paid',
  access_key_hash TEXT,
  access_key_expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}
