package controllers

import (
	"net/http"

	"github.com/caterbase/caterbase-backend/api/responses"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db"
	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
	"github.com/caterbase/caterbase-backend/pkg/logger"
)

// HealthLive reports process liveness without touching dependencies.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		env := ""
		if cfg != nil {
			env = cfg.App.Env
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok", "env": env})
	}
}

// HealthReady reports readiness, probing the database.
func HealthReady(logg *logger.Logger, db db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not wired"))
			return
		}
		if err := db.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
