package handlers

import (
	"context"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

// Pinger reports whether the storage backend is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping   Pinger
	logger *zerolog.Logger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	logger := log.GetLogger()
	return &HealthHandler{ping: ping, logger: &logger}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("storage health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
