package controllers

import (
	"context"
	"net/http"

	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/pkg/config"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

const envHeader = "X-Sooqly-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]pinger{
			"database": db,
			"redis":    redis,
		}
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
