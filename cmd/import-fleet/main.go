package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/amana-transportation/fleetview/internal/logging"
	"github.com/amana-transportation/fleetview/internal/source"
	"github.com/amana-transportation/fleetview/models"
	"github.com/amana-transportation/fleetview/repository"
)

type snapshotStore interface {
	SaveSnapshot(ctx context.Context, buses []models.BusRecord, source string, polledAt time.Time) (*repository.Snapshot, error)
	Cleanup(ctx context.Context, keep int) (int, error)
}

func main() {
	sourceKind := flag.String("source", "mock", "Fleet source: mock or http")
	apiURL := flag.String("url", source.DefaultAmanaURL, "Upstream fleet API URL (with -source http)")
	dbPath := flag.String("db", "data/fleet.db", "Path to SQLite database")
	postgresURL := flag.String("postgres", "", "Postgres connection URL; when set, writes to Postgres instead of SQLite")
	keep := flag.Int("keep", 10, "Number of snapshots to retain")
	timeout := flag.Duration("timeout", 15*time.Second, "Upstream request timeout")
	flag.Parse()

	logging.Init("import-fleet")

	var src source.Source
	switch *sourceKind {
	case "mock":
		m, err := source.NewMock()
		if err != nil {
			log.Fatalf("Failed to load mock fleet: %v", err)
		}
		src = m
	case "http":
		src = source.NewAmanaClient(*apiURL, *timeout, source.DefaultMaxAttempts)
	default:
		log.Fatalf("Unknown source %q (want mock or http)", *sourceKind)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var store snapshotStore
	if *postgresURL != "" {
		repo, err := repository.NewPostgresFleetRepository(*postgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer repo.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		store = repo
	} else {
		db, err := repository.NewSQLiteDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		repo := repository.NewSQLiteFleetRepository(db.GetDB())
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		store = repo
	}

	start := time.Now()
	buses, err := src.GetAllBuses(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch fleet: %v", err)
	}
	log.Printf("Fetched %d buses from %s in %v", len(buses), *sourceKind, time.Since(start).Round(time.Millisecond))

	snap, err := store.SaveSnapshot(ctx, buses, *sourceKind, time.Now())
	if err != nil {
		log.Fatalf("Failed to save snapshot: %v", err)
	}
	log.Printf("Saved snapshot %s (%d buses)", snap.SnapshotID, snap.BusCount)

	if _, err := store.Cleanup(ctx, *keep); err != nil {
		log.Printf("Warning: cleanup failed: %v", err)
	}
	log.Println("Import complete")
}
