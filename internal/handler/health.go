package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type healthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler reports readiness using ping to reach the database.
func NewHealthHandler(ping func(ctx context.Context) error) *healthHandler {
	return &healthHandler{ping: ping}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.ping(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
