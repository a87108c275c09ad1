package controllers

import (
	"context"
	"net/http"

	"github.com/ateliermoda/moda-backend/api/responses"
	"github.com/ateliermoda/moda-backend/pkg/config"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/logger"
)

// Pinger is the connectivity probe shared by the backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Moda-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the database and redis before reporting ready.
func HealthReady(cfg *config.Config, db, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Moda-Env", cfg.App.Env)

		checks := map[string]Pinger{
			"db":    db,
			"redis": cache,
		}
		for name, probe := range checks {
			if probe == nil {
				continue
			}
			if err := probe.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
