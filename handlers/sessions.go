package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amana-transportation/fleetview/internal/dashboard"
)

// SessionStore defines the dashboard session operations the API needs
type SessionStore interface {
	Create() *dashboard.Session
	Get(id string) (*dashboard.Session, error)
	Delete(id string) error
}

// SessionHandler exposes dashboard sessions and their click events
type SessionHandler struct {
	store SessionStore
}

// NewSessionHandler creates a new handler with the given store
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// StopRequest is the body of stop and marker clicks
type StopRequest struct {
	StopName string `json:"stopName"`
}

// CreateSession handles POST /api/sessions
// With ?wait=true the response is held until the initial load resolves.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()

	if r.URL.Query().Get("wait") == "true" {
		select {
		case <-s.Ready():
		case <-r.Context().Done():
		}
	}

	w.Header().Set("Location", "/api/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, s.View())
}

// GetSession handles GET /api/sessions/{sessionId}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.View())
}

// DeleteSession handles DELETE /api/sessions/{sessionId}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, dashboard.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleBus handles POST /api/sessions/{sessionId}/buses/{busId}/toggle
func (h *SessionHandler) ToggleBus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	busID, err := busIDParam(r)
	if err != nil || busID == "" {
		writeError(w, http.StatusBadRequest, "busId parameter is required", err)
		return
	}

	view, err := s.ToggleBus(busID)
	if err != nil {
		writeEventError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectStop handles POST /api/sessions/{sessionId}/stops/select
func (h *SessionHandler) SelectStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, ok := decodeStop(w, r)
	if !ok {
		return
	}

	view, err := s.SelectStop(name)
	if err != nil {
		writeEventError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClickMarker handles POST /api/sessions/{sessionId}/map/markers/click
func (h *SessionHandler) ClickMarker(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, ok := decodeStop(w, r)
	if !ok {
		return
	}

	view, err := s.ClickMarker(name)
	if err != nil {
		writeEventError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	id := chi.URLParam(r, "sessionId")
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return nil, false
	}
	return s, true
}

// busIDParam returns the decoded busId path parameter. chi matches on
// RawPath when the request path carries non-default escaping (an encoded
// slash, say), and only then is the parameter still escaped.
func busIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "busId")
	if r.URL.RawPath == "" {
		return id, nil
	}
	return url.PathUnescape(id)
}

func decodeStop(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req StopRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", false
	}
	req.StopName = strings.TrimSpace(req.StopName)
	if req.StopName == "" {
		writeError(w, http.StatusBadRequest, "stopName is required", nil)
		return "", false
	}
	return req.StopName, true
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrLoading):
		writeError(w, http.StatusConflict, "Dashboard is still loading", nil)
	case errors.Is(err, dashboard.ErrUnknownMarker):
		writeError(w, http.StatusNotFound, "Marker not found", err)
	case errors.Is(err, dashboard.ErrUnknownControl):
		writeError(w, http.StatusNotFound, "Bus not found", err)
	case errors.Is(err, dashboard.ErrUnknownRow):
		writeError(w, http.StatusNotFound, "Schedule row not found", err)
	case errors.Is(err, dashboard.ErrClosed):
		writeError(w, http.StatusGone, "Session closed", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to apply event", err)
	}
}
