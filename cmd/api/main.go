package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amana-transportation/fleetview/handlers"
	"github.com/amana-transportation/fleetview/internal/config"
	"github.com/amana-transportation/fleetview/internal/dashboard"
	"github.com/amana-transportation/fleetview/internal/logging"
	"github.com/amana-transportation/fleetview/internal/metrics"
	"github.com/amana-transportation/fleetview/internal/publisher"
	"github.com/amana-transportation/fleetview/internal/source"
	"github.com/amana-transportation/fleetview/repository"
)

func main() {
	logging.Init("api")
	log.Println("Starting fleetview API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Config loaded: source=%s, session_ttl=%v, load_delay=%v", cfg.FleetSource, cfg.SessionTTL, cfg.LoadDelay)

	src, closeSource, err := openSource(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s source: %v", cfg.FleetSource, err)
	}
	defer closeSource()

	collector := metrics.NewCollector()
	observers := dashboard.Observers{collector}

	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, collector)
		if err != nil {
			log.Printf("Warning: selection events disabled: %v", err)
		} else {
			defer pub.Close()
			observers = append(observers, pub)
			log.Printf("Publishing selection events to %s (%s.*)", cfg.NATSURL, cfg.NATSSubjectPrefix)
		}
	}

	store := dashboard.NewStore(source.WithDelay(src, cfg.LoadDelay), cfg.SessionTTL, observers)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.SessionTTL > 0 {
		go store.Run(ctx, time.Minute)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Buses:          handlers.NewBusHandler(src),
		Health:         handlers.NewHealthHandler(src, cfg.FleetSource),
		Sessions:       handlers.NewSessionHandler(store),
		Dashboard:      handlers.NewDashboardHandler(store),
		Metrics:        collector.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.Port)
		log.Println("Fleet endpoints:")
		log.Println("  GET /api/buses")
		log.Println("  GET /api/buses/summary")
		log.Println("  GET /api/gtfs-rt/vehicle-positions.pb")
		log.Println("Dashboard endpoints:")
		log.Println("  POST /api/sessions")
		log.Println("  GET|DELETE /api/sessions/{sessionId}")
		log.Println("  POST /api/sessions/{sessionId}/buses/{busId}/toggle")
		log.Println("  POST /api/sessions/{sessionId}/stops/select")
		log.Println("  POST /api/sessions/{sessionId}/map/markers/click")
		log.Println("  GET /dashboard")
		log.Println("Health:")
		log.Println("  GET /health (with source check)")
		log.Println("  GET /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("Closing %d dashboard sessions", store.Len())
	log.Println("Goodbye!")
}

// openSource builds the configured fleet source. The returned func
// releases any database connection.
func openSource(cfg *config.Config) (source.Source, func(), error) {
	switch cfg.FleetSource {
	case config.SourceHTTP:
		log.Printf("Fetching fleet from %s (timeout %v, %d attempts)", cfg.FleetAPIURL, cfg.FetchTimeout, cfg.FetchRetries)
		return source.NewAmanaClient(cfg.FleetAPIURL, cfg.FetchTimeout, cfg.FetchRetries), func() {}, nil

	case config.SourceSQLite:
		log.Printf("Connecting to SQLite database: %s", cfg.SQLitePath)
		db, err := repository.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLiteFleetRepository(db.GetDB())
		if err := repo.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("SQLite database connection established")
		return repo, func() { db.Close() }, nil

	case config.SourcePostgres:
		repo, err := repository.NewPostgresFleetRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(context.Background()); err != nil {
			repo.Close()
			return nil, nil, err
		}
		log.Println("Postgres connection established")
		return repo, repo.Close, nil

	case config.SourceMock:
		m, err := source.NewMock()
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown fleet source %q", cfg.FleetSource)
}
