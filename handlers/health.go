package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports whether the fleet source is reachable
type HealthHandler struct {
	src    BusSource
	source string
}

// NewHealthHandler creates a health handler; source names the configured
// source kind in responses
func NewHealthHandler(src BusSource, source string) *HealthHandler {
	return &HealthHandler{src: src, source: source}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Buses     int       `json:"buses"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// GetHealth handles GET /health
// Loads the snapshot once with a short timeout
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	buses, err := h.src.GetAllBuses(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Source:    h.source,
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Source:    h.source,
		Buses:     len(buses),
		Timestamp: time.Now().UTC(),
	})
}

// Liveness handles GET /healthz
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
