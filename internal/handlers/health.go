package handlers

import (
	"net/http"
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
}

// NewHealthHandlers constructs the probe handlers. A nil system service still
// answers /healthz; /readyz degrades to a plain ok response.
func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

// Healthz reports process liveness and uptime.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.system != nil {
		payload["uptime"] = h.system.Uptime().String()
	}
	writeJSON(w, http.StatusOK, payload)
}

// Readyz runs the dependency probes and reports 503 until every check passes.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	report, err := h.system.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error"})
		return
	}

	checks := make(map[string]map[string]any, len(report.Checks))
	for name, check := range report.Checks {
		entry := map[string]any{
			"status":  string(check.Status),
			"latency": check.Latency.String(),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		checks[name] = entry
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}
