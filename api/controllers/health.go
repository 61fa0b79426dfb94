package controllers

import (
	"context"
	"net/http"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

const envHeader = "X-Bauprodukt-Env"

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and cache. A failed dependency turns the
// readiness response into a 503 with per-check detail.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				checks["db"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness db ping failed", err)
				}
			} else {
				checks["db"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness redis ping failed", err)
				}
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
