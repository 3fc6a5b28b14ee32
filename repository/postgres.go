package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amana-transportation/fleetview/models"
)

// PostgresFleetRepository stores and reads fleet snapshots in Postgres
type PostgresFleetRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresFleetRepository(databaseURL string) (*PostgresFleetRepository, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresFleetRepository{pool: pool}, nil
}

func (r *PostgresFleetRepository) Close() {
	r.pool.Close()
}

func (r *PostgresFleetRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaPostgresSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresFleetRepository) SaveSnapshot(ctx context.Context, buses []models.BusRecord, source string, polledAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		SnapshotID:  uuid.New(),
		PolledAtUTC: polledAt.UTC(),
		Source:      source,
		BusCount:    len(buses),
	}
	id := snap.SnapshotID.String()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(
		"INSERT INTO fleet_snapshots (snapshot_id, polled_at_utc, source, bus_count) VALUES ($1, $2, $3, $4)",
		id, snap.PolledAtUTC, source, len(buses),
	)
	for i, b := range buses {
		batch.Queue(`
			INSERT INTO fleet_buses (
				snapshot_id, position, bus_id, status, passengers, next_stop, next_arrival_time
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, i, b.ID, string(b.Status), b.Passengers, b.NextStop, b.NextArrivalTime)
		for j, s := range b.Stops {
			batch.Queue(`
				INSERT INTO fleet_stops (
					snapshot_id, bus_id, position, name, arrival_time, next_arrival,
					latitude, longitude, is_current
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, id, b.ID, j, s.Name, s.ArrivalTime, s.NextArrival, s.Coords.Lat, s.Coords.Lng, s.IsCurrent)
		}
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, fmt.Errorf("failed to write snapshot row %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap, nil
}

func (r *PostgresFleetRepository) GetLatestSnapshot(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT snapshot_id::text, polled_at_utc, source, bus_count
		FROM fleet_snapshots
		ORDER BY polled_at_utc DESC
		LIMIT 1
	`

	var snap Snapshot
	var idStr string
	err := r.pool.QueryRow(ctx, query).Scan(&idStr, &snap.PolledAtUTC, &snap.Source, &snap.BusCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if snap.SnapshotID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid snapshot id %q: %w", idStr, err)
	}
	snap.PolledAtUTC = snap.PolledAtUTC.UTC()
	return &snap, nil
}

func (r *PostgresFleetRepository) GetAllBuses(ctx context.Context) ([]models.BusRecord, error) {
	snap, err := r.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT bus_id, status, passengers, next_stop, next_arrival_time
		FROM fleet_buses
		WHERE snapshot_id = $1
		ORDER BY position
	`, snap.SnapshotID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	defer rows.Close()

	buses := []models.BusRecord{}
	index := make(map[string]int)
	for rows.Next() {
		var b models.BusRecord
		var status string
		if err := rows.Scan(&b.ID, &status, &b.Passengers, &b.NextStop, &b.NextArrivalTime); err != nil {
			return nil, fmt.Errorf("failed to scan bus row: %w", err)
		}
		b.Status = models.Status(status)
		b.Stops = []models.Stop{}
		index[b.ID] = len(buses)
		buses = append(buses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bus rows: %w", err)
	}

	stopRows, err := r.pool.Query(ctx, `
		SELECT bus_id, name, arrival_time, next_arrival, latitude, longitude, is_current
		FROM fleet_stops
		WHERE snapshot_id = $1
		ORDER BY bus_id, position
	`, snap.SnapshotID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer stopRows.Close()

	for stopRows.Next() {
		var busID string
		var s models.Stop
		if err := stopRows.Scan(&busID, &s.Name, &s.ArrivalTime, &s.NextArrival, &s.Coords.Lat, &s.Coords.Lng, &s.IsCurrent); err != nil {
			return nil, fmt.Errorf("failed to scan stop row: %w", err)
		}
		if i, ok := index[busID]; ok {
			buses[i].Stops = append(buses[i].Stops, s)
		}
	}
	if err := stopRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop rows: %w", err)
	}

	return buses, nil
}

func (r *PostgresFleetRepository) Cleanup(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM fleet_snapshots
		WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM fleet_snapshots
			ORDER BY polled_at_utc DESC
			LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
