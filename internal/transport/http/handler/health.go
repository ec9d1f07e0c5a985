package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports whether the ephemeral store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the welcome and health endpoints.
type HealthHandler struct {
	redis   Pinger
	appName string
	logger  zerolog.Logger
}

func NewHealthHandler(redis Pinger, appName string, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{redis: redis, appName: appName, logger: logger}
}

func (h *HealthHandler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Welcome to " + h.appName})
}

// Health always answers 200; redis_connected carries the store status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := true
	if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("redis ping failed")
		connected = false
	}
	writeJSON(w, http.StatusOK, HealthEnvelope{Status: "ok", RedisConnected: connected})
}
