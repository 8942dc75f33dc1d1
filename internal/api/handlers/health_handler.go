package handlers

import (
	"net/http"

	"github.com/limeboard/limeboard/internal/api/response"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// healthStatus is the /health payload.
type healthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, healthStatus{Status: "ok", Service: "limeboard"})
}
