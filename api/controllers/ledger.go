package controllers

import (
	"net/http"

	"github.com/caterbase/caterbase-backend/api/responses"
	ledgersvc "github.com/caterbase/caterbase-backend/internal/ledger"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
)

// LedgerAudit recomputes one customer's balance from the order and payment
// tables and reports any drift. Admin only.
func LedgerAudit(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Audit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// LedgerAuditAll audits every customer. Admin only.
func LedgerAuditAll(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		reports, err := svc.AuditAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reports)
	}
}
