package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxCustomer contextKey = "customer"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// CustomerFromContext returns the account authenticated by AccessKey, or nil.
func CustomerFromContext(ctx context.Context) *models.Customer {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCustomer).(*models.Customer); ok {
		return v
	}
	return nil
}

// WithUserID injects the staff identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID.String())
}

// WithRole injects the staff role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithCustomer injects the authenticated customer into the context.
func WithCustomer(ctx context.Context, customer *models.Customer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomer, customer)
}
