package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gw-labs/gw-messenger/internal/logger"
)

// HealthChecker defines the interface that the store must implement.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthResponse represents the health check response
// swagger:model HealthResponse
type HealthResponse struct {
	// Health status
	// default: ok
	Health string `json:"health"`
}

// NewHealthHandler returns an HTTP handler for the liveness probe.
// @Summary Health check
// @Description Runs a canary read against the store.
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse "Store healthy"
// @Failure 503 {object} handlers.HealthResponse "Store unreachable or corrupt"
// @Router /check [post]
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := store.Health(r.Context()); err != nil {
			logger.Log.Errorw("health check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(HealthResponse{Health: "bad"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{Health: "ok"})
	}
}
