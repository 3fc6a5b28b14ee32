// Package selector renders one toggle control per bus.
package selector

import "github.com/amana-transportation/fleetview/models"

// LoadingMessage is shown while the initial bus load is pending
const LoadingMessage = "Loading routes..."

// Control is one bus button
type Control struct {
	BusID      string        `json:"busId"`
	Label      string        `json:"label"`
	Selected   bool          `json:"selected"`
	Status     models.Status `json:"status"`
	Passengers int           `json:"passengers"`
}

// Bar is the rendered selector
type Bar struct {
	Controls []Control `json:"controls"`
	Loading  string    `json:"loading,omitempty"`
}

// Build renders controls in source order, marking the selected bus
func Build(buses []models.BusRecord, selectedBusID string, loading bool) Bar {
	bar := Bar{Controls: make([]Control, 0, len(buses))}
	if loading {
		bar.Loading = LoadingMessage
	}
	for _, b := range buses {
		bar.Controls = append(bar.Controls, Control{
			BusID:      b.ID,
			Label:      b.ID,
			Selected:   selectedBusID != "" && b.ID == selectedBusID,
			Status:     b.Status,
			Passengers: b.Passengers,
		})
	}
	return bar
}

// Selected returns the selected control's bus id, if any
func (b Bar) Selected() (string, bool) {
	for _, c := range b.Controls {
		if c.Selected {
			return c.BusID, true
		}
	}
	return "", false
}

// Click returns the bus id for the bus-toggled event. Unknown ids are
// rejected so stale buttons cannot select buses outside the snapshot.
func (b Bar) Click(busID string) (string, bool) {
	for _, c := range b.Controls {
		if c.BusID == busID {
			return c.BusID, true
		}
	}
	return "", false
}
