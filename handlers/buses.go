package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/amana-transportation/fleetview/internal/feed"
	"github.com/amana-transportation/fleetview/models"
)

// BusSource defines the interface for reading the fleet snapshot
type BusSource interface {
	GetAllBuses(ctx context.Context) ([]models.BusRecord, error)
}

// BusHandler serves the raw fleet snapshot
type BusHandler struct {
	src BusSource
}

// NewBusHandler creates a new handler with the given source
func NewBusHandler(src BusSource) *BusHandler {
	return &BusHandler{src: src}
}

// GetAllBusesResponse is the JSON response structure for GET /api/buses
type GetAllBusesResponse struct {
	Buses    []models.BusRecord  `json:"buses"`
	Count    int                 `json:"count"`
	Summary  models.FleetSummary `json:"summary"`
	PolledAt time.Time           `json:"polledAt"`
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// GetAllBuses handles GET /api/buses
func (h *BusHandler) GetAllBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := h.src.GetAllBuses(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to retrieve buses", err)
		return
	}
	if buses == nil {
		buses = []models.BusRecord{}
	}

	response := GetAllBusesResponse{
		Buses:    buses,
		Count:    len(buses),
		Summary:  models.Summarize(buses),
		PolledAt: time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "public, max-age=15, stale-while-revalidate=10")
	w.Header().Set("Vary", "Accept-Encoding")
	writeJSON(w, http.StatusOK, response)
}

// GetSummary handles GET /api/buses/summary
func (h *BusHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	buses, err := h.src.GetAllBuses(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to retrieve buses", err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=15")
	writeJSON(w, http.StatusOK, models.Summarize(buses))
}

// GetVehiclePositionsFeed handles GET /api/gtfs-rt/vehicle-positions.pb
func (h *BusHandler) GetVehiclePositionsFeed(w http.ResponseWriter, r *http.Request) {
	buses, err := h.src.GetAllBuses(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to retrieve buses", err)
		return
	}

	body, err := feed.Marshal(buses, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode feed", err)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.Header().Set("Cache-Control", "public, max-age=15")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse; err, if set, goes into details
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = map[string]interface{}{
			"internal": err.Error(),
		}
	}
	writeJSON(w, status, resp)
}
