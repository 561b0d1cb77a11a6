package handler

import (
	"net/http"

	"github.com/tollgate-ai/tollgate/internal/version"
)

// RootStatus returns JSON status and version information at /
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":       "tollgate",
		"version":    version.Version,
		"status":     "running",
		"statistics": "/statistics",
		"health":     "/api/health",
	}, http.StatusOK)
}

// HealthCheck reports the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status": "active",
		"app":    "tollgate",
	}, http.StatusOK)
}
