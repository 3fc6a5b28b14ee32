package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Status is the operational status reported for a bus.
// Active and Inactive are the known values; any other text is passed through.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// LatLng is a WGS84 coordinate pair.
// It encodes as a [lat, lng] JSON array, the shape the map widget consumes.
type LatLng struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lng float64 `validate:"gte=-180,lte=180"`
}

func (p LatLng) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lng})
}

func (p *LatLng) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coords must be a [lat, lng] pair: %w", err)
	}
	p.Lat, p.Lng = pair[0], pair[1]
	return nil
}

func (p *LatLng) UnmarshalYAML(value *yaml.Node) error {
	var pair []float64
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("line %d: coords must be a [lat, lng] pair: %w", value.Line, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line %d: coords must have 2 values, got %d", value.Line, len(pair))
	}
	p.Lat, p.Lng = pair[0], pair[1]
	return nil
}

// Stop is one point on a bus's route.
// Name is unique within its bus and is used as the selection key.
type Stop struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	ArrivalTime string `json:"arrivalTime" yaml:"arrivalTime"`
	NextArrival string `json:"nextArrival" yaml:"nextArrival"`
	Coords      LatLng `json:"coords" yaml:"coords"`
	IsCurrent   bool   `json:"isCurrent,omitempty" yaml:"isCurrent"`
}

// BusRecord is one fleet vehicle's status and ordered stop sequence.
// Records are immutable once loaded.
type BusRecord struct {
	ID              string `json:"id" yaml:"id" validate:"required"`
	Status          Status `json:"status" yaml:"status"`
	Passengers      int    `json:"passengers" yaml:"passengers" validate:"gte=0"`
	NextStop        string `json:"nextStop" yaml:"nextStop"`
	NextArrivalTime string `json:"nextArrivalTime" yaml:"nextArrivalTime"`
	Stops           []Stop `json:"stops" yaml:"stops" validate:"dive"`
}

var validate = validator.New()

// ErrDuplicateStop is returned by Validate when two stops of one bus share a name.
var ErrDuplicateStop = errors.New("duplicate stop name")

// Validate checks field constraints and stop-name uniqueness.
func (b *BusRecord) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("bus %q: %w", b.ID, err)
	}

	seen := make(map[string]struct{}, len(b.Stops))
	for _, s := range b.Stops {
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("bus %q: %w: %s", b.ID, ErrDuplicateStop, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// ValidateAll validates every record and rejects duplicate bus ids.
func ValidateAll(buses []BusRecord) error {
	ids := make(map[string]struct{}, len(buses))
	for i := range buses {
		if err := buses[i].Validate(); err != nil {
			return err
		}
		if _, ok := ids[buses[i].ID]; ok {
			return fmt.Errorf("duplicate bus id: %s", buses[i].ID)
		}
		ids[buses[i].ID] = struct{}{}
	}
	return nil
}

// Coords returns the stop coordinates in route order.
func (b *BusRecord) Coords() []LatLng {
	coords := make([]LatLng, 0, len(b.Stops))
	for _, s := range b.Stops {
		coords = append(coords, s.Coords)
	}
	return coords
}

// HasStop reports whether the bus has a stop with the given name.
func (b *BusRecord) HasStop(name string) bool {
	for _, s := range b.Stops {
		if s.Name == name {
			return true
		}
	}
	return false
}
