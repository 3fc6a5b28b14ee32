package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig wires the handlers into one router
type RouterConfig struct {
	Buses          *BusHandler
	Health         *HealthHandler
	Sessions       *SessionHandler
	Dashboard      *DashboardHandler
	Metrics        http.Handler
	AllowedOrigins []string
	StaticDir      string
}

// NewRouter registers every route
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", cfg.Health.GetHealth)
	r.Get("/healthz", Liveness)

	// Fleet snapshot
	r.Get("/api/buses", cfg.Buses.GetAllBuses)
	r.Get("/api/buses/summary", cfg.Buses.GetSummary)
	r.Get("/api/gtfs-rt/vehicle-positions.pb", cfg.Buses.GetVehiclePositionsFeed)

	// Dashboard sessions
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", cfg.Sessions.CreateSession)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", cfg.Sessions.GetSession)
			r.Delete("/", cfg.Sessions.DeleteSession)
			r.Post("/buses/{busId}/toggle", cfg.Sessions.ToggleBus)
			r.Post("/stops/select", cfg.Sessions.SelectStop)
			r.Post("/map/markers/click", cfg.Sessions.ClickMarker)
		})
	})

	// Server-rendered page
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/dashboard", cfg.Dashboard.NewDashboard)
	r.Get("/dashboard/{sessionId}", cfg.Dashboard.ShowDashboard)
	r.Post("/dashboard/{sessionId}/buses/{busId}/toggle", cfg.Dashboard.ToggleBus)
	r.Post("/dashboard/{sessionId}/stops/select", cfg.Dashboard.SelectStop)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	return r
}
