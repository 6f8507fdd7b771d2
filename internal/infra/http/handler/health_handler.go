package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks backing store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	store   Pinger
	started time.Time
}

// NewHealthHandler creates a new HealthHandler. store may be nil when
// the gateway runs on the in-memory store.
func NewHealthHandler(version string, store Pinger) *HealthHandler {
	return &HealthHandler{
		version: version,
		store:   store,
		started: time.Now(),
	}
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Store   string `json:"store,omitempty"`
}

// Health handles GET /health. Liveness only; always 200 while the
// process serves requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Ready handles GET /ready. Readiness fails when the shared store is
// unreachable since rate limiting and lockouts depend on it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Store = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Store = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
