package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amana-transportation/fleetview/internal/dashboard"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").
	Funcs(template.FuncMap{"pathEscape": url.PathEscape}).
	ParseFS(templateFS, "templates/dashboard.html"))

// DashboardHandler serves the server-rendered dashboard page. Clicks are
// plain form posts that redirect back to the page.
type DashboardHandler struct {
	store SessionStore
}

// NewDashboardHandler creates a new handler with the given store
func NewDashboardHandler(store SessionStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

type dashboardPage struct {
	View dashboard.View
}

// NewDashboard handles GET /dashboard
// Creates a session, waits for its load and redirects to it
func (h *DashboardHandler) NewDashboard(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	select {
	case <-s.Ready():
	case <-r.Context().Done():
		if err := h.store.Delete(s.ID()); err != nil {
			log.Printf("Dashboard %s: failed to drop abandoned session: %v", s.ID(), err)
		}
		return
	}
	http.Redirect(w, r, "/dashboard/"+s.ID(), http.StatusSeeOther)
}

// ShowDashboard handles GET /dashboard/{sessionId}
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, dashboardPage{View: s.View()}); err != nil {
		log.Printf("Dashboard %s: failed to render page: %v", s.ID(), err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ToggleBus handles POST /dashboard/{sessionId}/buses/{busId}/toggle
func (h *DashboardHandler) ToggleBus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	s, err := h.store.Get(id)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	busID, err := busIDParam(r)
	if err != nil || busID == "" {
		http.Error(w, "invalid bus id", http.StatusBadRequest)
		return
	}

	if _, err := s.ClickControl(busID); err != nil && !errors.Is(err, dashboard.ErrLoading) {
		log.Printf("Dashboard %s: toggle %q failed: %v", id, busID, err)
	}
	http.Redirect(w, r, "/dashboard/"+id, http.StatusSeeOther)
}

// SelectStop handles POST /dashboard/{sessionId}/stops/select
// The form carries the clicked schedule row index.
func (h *DashboardHandler) SelectStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	s, err := h.store.Get(id)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	row, err := strconv.Atoi(r.PostFormValue("row"))
	if err != nil {
		http.Error(w, "row is required", http.StatusBadRequest)
		return
	}

	if _, err := s.ClickRow(row); err != nil && !errors.Is(err, dashboard.ErrLoading) {
		log.Printf("Dashboard %s: schedule row %d click failed: %v", id, row, err)
	}
	http.Redirect(w, r, "/dashboard/"+id, http.StatusSeeOther)
}
