package repository

import (
	_ "embed"
	"errors"
	"time"

	"github.com/google/uuid"
)

// schemaSQL is the SQLite schema, applied by EnsureSchema.
//
//go:embed schema.sql
var schemaSQL string

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// ErrNoSnapshot is returned when no fleet snapshot has been imported yet
var ErrNoSnapshot = errors.New("no fleet snapshot available")

// Snapshot describes one imported fleet snapshot
type Snapshot struct {
	SnapshotID  uuid.UUID `json:"snapshotId"`
	PolledAtUTC time.Time `json:"polledAtUtc"`
	Source      string    `json:"source"`
	BusCount    int       `json:"busCount"`
}

// polledAtLayout sorts lexicographically in UTC
const polledAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatPolledAt(t time.Time) string {
	return t.UTC().Format(polledAtLayout)
}

// parseTimeString converts a stored timestamp back to time.Time
func parseTimeString(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
