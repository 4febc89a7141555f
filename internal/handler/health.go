package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	store   Pinger
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now()}
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Uptime  string `json:"uptime"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Storage: "ok", Uptime: time.Since(h.started).Round(time.Second).String()}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		resp.Status, resp.Storage = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, resp)
}
