// Package health expone los endpoints de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/store/core"
)

// Controller responde /healthz y /readyz.
type Controller struct {
	cache cache.Client
	users core.UserRepository
}

// NewController crea un nuevo controller de health.
func NewController(c cache.Client, users core.UserRepository) *Controller {
	return &Controller{cache: c, users: users}
}

// Healthz maneja GET /healthz. Vivo = responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz. Listo = cache y user store contestan ping.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"cache": "ok", "store": "ok"}
	ready := true

	if err := c.cache.Ping(ctx); err != nil {
		logger.From(ctx).Warn("cache ping failed", logger.Component("health"), logger.Err(err))
		checks["cache"] = "down"
		ready = false
	}
	if err := c.users.Ping(ctx); err != nil {
		logger.From(ctx).Warn("store ping failed", logger.Component("health"), logger.Err(err))
		checks["store"] = "down"
		ready = false
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ready": ready, "checks": checks})
}
