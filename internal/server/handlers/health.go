package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/recordlink/internal/server/response"
)

// HandleHealth handles GET /health (liveness probe).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "recordlink-api",
		"version": h.version,
	})
}

// HandleReady handles GET /api/v1/ready. The store is probed through a
// tenant scoped read that touches no data for an unknown tenant.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.linker.References(r.Context(), "_readiness"); err != nil {
		response.ServiceUnavailable(w, "Store not available")
		return
	}
	response.OK(w, map[string]any{
		"status": "ready",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
