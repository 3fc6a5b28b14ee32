package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/amana-transportation/fleetview/models"

	_ "modernc.org/sqlite"
)

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection keeps imports and
	// dashboard reads from tripping over each other.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// SQLiteFleetRepository stores and reads fleet snapshots in SQLite
type SQLiteFleetRepository struct {
	db *sql.DB
}

// NewSQLiteFleetRepository creates a new SQLiteFleetRepository
func NewSQLiteFleetRepository(db *sql.DB) *SQLiteFleetRepository {
	return &SQLiteFleetRepository{db: db}
}

// EnsureSchema creates tables if they don't exist
func (r *SQLiteFleetRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSnapshot writes buses as a new snapshot and returns it
func (r *SQLiteFleetRepository) SaveSnapshot(ctx context.Context, buses []models.BusRecord, source string, polledAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		SnapshotID:  uuid.New(),
		PolledAtUTC: polledAt.UTC(),
		Source:      source,
		BusCount:    len(buses),
	}
	id := snap.SnapshotID.String()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO fleet_snapshots (snapshot_id, polled_at_utc, source, bus_count) VALUES (?, ?, ?, ?)",
		id, formatPolledAt(polledAt), source, len(buses),
	); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	busStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fleet_buses (
			snapshot_id, position, bus_id, status, passengers, next_stop, next_arrival_time
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare bus statement: %w", err)
	}
	defer busStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fleet_stops (
			snapshot_id, bus_id, position, name, arrival_time, next_arrival,
			latitude, longitude, is_current
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stop statement: %w", err)
	}
	defer stopStmt.Close()

	for i, b := range buses {
		if _, err := busStmt.ExecContext(ctx,
			id, i, b.ID, string(b.Status), b.Passengers, b.NextStop, b.NextArrivalTime,
		); err != nil {
			return nil, fmt.Errorf("failed to insert bus %s: %w", b.ID, err)
		}
		for j, s := range b.Stops {
			if _, err := stopStmt.ExecContext(ctx,
				id, b.ID, j, s.Name, s.ArrivalTime, s.NextArrival,
				s.Coords.Lat, s.Coords.Lng, s.IsCurrent,
			); err != nil {
				return nil, fmt.Errorf("failed to insert stop %s/%s: %w", b.ID, s.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap, nil
}

// GetLatestSnapshot returns the most recently polled snapshot
func (r *SQLiteFleetRepository) GetLatestSnapshot(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT snapshot_id, polled_at_utc, source, bus_count
		FROM fleet_snapshots
		ORDER BY polled_at_utc DESC, rowid DESC
		LIMIT 1
	`

	var snap Snapshot
	var idStr, polledAtStr string
	err := r.db.QueryRowContext(ctx, query).Scan(&idStr, &polledAtStr, &snap.Source, &snap.BusCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if snap.SnapshotID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid snapshot id %q: %w", idStr, err)
	}
	if snap.PolledAtUTC, err = parseTimeString(polledAtStr); err != nil {
		return nil, fmt.Errorf("invalid polled_at_utc %q: %w", polledAtStr, err)
	}
	return &snap, nil
}

// GetAllBuses returns the buses of the latest snapshot in source order
func (r *SQLiteFleetRepository) GetAllBuses(ctx context.Context) ([]models.BusRecord, error) {
	snap, err := r.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.GetSnapshotBuses(ctx, snap.SnapshotID)
}

// GetSnapshotBuses returns the buses of one snapshot in source order
func (r *SQLiteFleetRepository) GetSnapshotBuses(ctx context.Context, snapshotID uuid.UUID) ([]models.BusRecord, error) {
	id := snapshotID.String()

	rows, err := r.db.QueryContext(ctx, `
		SELECT bus_id, status, passengers, next_stop, next_arrival_time
		FROM fleet_buses
		WHERE snapshot_id = ?
		ORDER BY position
	`, id)
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

	stopRows, err := r.db.QueryContext(ctx, `
		SELECT bus_id, name, arrival_time, next_arrival, latitude, longitude, is_current
		FROM fleet_stops
		WHERE snapshot_id = ?
		ORDER BY bus_id, position
	`, id)
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
		i, ok := index[busID]
		if !ok {
			log.Printf("Warning: stop %q references unknown bus %q in snapshot %s", s.Name, busID, id)
			continue
		}
		buses[i].Stops = append(buses[i].Stops, s)
	}
	if err := stopRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop rows: %w", err)
	}

	return buses, nil
}

// Cleanup deletes all but the newest keep snapshots
func (r *SQLiteFleetRepository) Cleanup(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM fleet_snapshots
		WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM fleet_snapshots
			ORDER BY polled_at_utc DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup snapshots: %w", err)
	}
	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		log.Printf("Cleanup: deleted %d old fleet snapshots", deleted)
	}
	return int(deleted), nil
}
