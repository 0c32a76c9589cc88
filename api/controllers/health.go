package controllers

import (
	"net/http"

	"github.com/nivedithavs/trendora-backend/api/responses"
	"github.com/nivedithavs/trendora-backend/pkg/config"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	pkgredis "github.com/nivedithavs/trendora-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Trendora-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, redis pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Trendora-Env", cfg.App.Env)
		if redis != nil {
			if err := redis.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
