// Package schedule renders the active bus's stops as table rows.
package schedule

import (
	"github.com/amana-transportation/fleetview/internal/selection"
	"github.com/amana-transportation/fleetview/models"
)

const (
	// Placeholder is shown instead of an empty table
	Placeholder = "No schedule available for this selection."
	// SelectionNote explains the highlighted row while a bus is selected
	SelectionNote = "A list of all bus stops and the next arrival time is displayed in the table below. The highlighted row indicates the currently selected/next stop."

	allRoutes = "All Routes"
)

// Row is one stop in the schedule
type Row struct {
	Stop        string        `json:"stop"`
	ArrivalTime string        `json:"arrivalTime"`
	NextArrival string        `json:"nextArrival"`
	Coords      models.LatLng `json:"coords"`
	Highlighted bool          `json:"highlighted"`
}

// Table is the rendered schedule
type Table struct {
	Title       string `json:"title"`
	Rows        []Row  `json:"rows"`
	Placeholder string `json:"placeholder,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Empty reports whether the table shows the placeholder
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Build renders stops in order, highlighting at most one row.
// selectedBusID drives the title and note; it may name a bus that no
// longer exists.
func Build(stops []models.Stop, selectedStop string, activeBus *models.BusRecord, selectedBusID string) Table {
	t := Table{
		Title: "Bus Schedule (" + titleFor(selectedBusID) + ")",
		Rows:  make([]Row, 0, len(stops)),
	}
	if selectedBusID != "" {
		t.Note = SelectionNote
	}
	if len(stops) == 0 {
		t.Placeholder = Placeholder
		return t
	}

	highlighted := selection.HighlightedIndex(stops, selectedStop, activeBus)
	for i, s := range stops {
		t.Rows = append(t.Rows, Row{
			Stop:        s.Name,
			ArrivalTime: s.ArrivalTime,
			NextArrival: s.NextArrival,
			Coords:      s.Coords,
			Highlighted: i == highlighted,
		})
	}
	return t
}

// HighlightedRow returns the highlighted row's stop name, if any
func (t Table) HighlightedRow() (string, bool) {
	for _, r := range t.Rows {
		if r.Highlighted {
			return r.Stop, true
		}
	}
	return "", false
}

// ClickRow returns the stop name of row i for the stop-clicked event
func (t Table) ClickRow(i int) (string, bool) {
	if i < 0 || i >= len(t.Rows) {
		return "", false
	}
	return t.Rows[i].Stop, true
}

func titleFor(busID string) string {
	if busID == "" {
		return allRoutes
	}
	return busID
}
