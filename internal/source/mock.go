package source

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/amana-transportation/fleetview/models"
)

// mockFleetYAML is the fixed snapshot used when no upstream is configured.
//
//go:embed fleet.yaml
var mockFleetYAML []byte

type fleetFile struct {
	Buses []models.BusRecord `yaml:"buses"`
}

// Mock serves a fixed, validated in-memory snapshot
type Mock struct {
	buses []models.BusRecord
}

// NewMock parses the embedded fleet snapshot
func NewMock() (*Mock, error) {
	return NewMockFromYAML(mockFleetYAML)
}

// NewMockFromYAML parses and validates a fleet snapshot document
func NewMockFromYAML(data []byte) (*Mock, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f fleetFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fleet snapshot: %w", err)
	}
	if err := models.ValidateAll(f.Buses); err != nil {
		return nil, fmt.Errorf("invalid fleet snapshot: %w", err)
	}
	return &Mock{buses: f.Buses}, nil
}

// GetAllBuses returns a copy of the snapshot so callers cannot mutate it
func (m *Mock) GetAllBuses(ctx context.Context) ([]models.BusRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.BusRecord, len(m.buses))
	for i, b := range m.buses {
		b.Stops = append([]models.Stop(nil), b.Stops...)
		out[i] = b
	}
	return out, nil
}
