package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/caterbase/caterbase-backend/api/responses"
	"github.com/caterbase/caterbase-backend/pkg/db/models"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
)

const accessKeyHeader = "X-Access-Key"

type accessKeyAuthenticator interface {
	AuthenticateAccessKey(ctx context.Context, key string) (*models.Customer, error)
}

// AccessKey authenticates portal requests with the customer's self-service
// key and seeds the context with the matched account.
func AccessKey(auth accessKeyAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(accessKeyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing access key"))
				return
			}

			customer, err := auth.AuthenticateAccessKey(r.Context(), key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithCustomer(r.Context(), customer)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customer.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
