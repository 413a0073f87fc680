package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

// Pinger is the readiness surface each backing dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Voltline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports per-check status.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Voltline-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, pinger := range checks {
			if pinger == nil {
				status[name] = "skipped"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				healthy = false
				status[name] = "down"
				if logg != nil {
					logg.Error(logg.WithFields(ctx, map[string]any{"check": name}), "readiness check failed", err)
				}
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		overall := "ready"
		if !healthy {
			code = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": overall,
			"checks": status,
		})
	}
}
