package schedule

import (
	"testing"

	"github.com/amana-transportation/fleetview/internal/mapview"
	"github.com/amana-transportation/fleetview/internal/selection"
	"github.com/amana-transportation/fleetview/models"
)

func fleet() []models.BusRecord {
	return []models.BusRecord{
		{ID: "BusA", NextStop: "S2", Stops: []models.Stop{
			{Name: "S1", NextArrival: "09:00"},
			{Name: "S2", NextArrival: "09:30"},
		}},
		{ID: "BusB", NextStop: "S3", Stops: []models.Stop{{Name: "S3", NextArrival: "10:00"}}},
	}
}

func buildFor(buses []models.BusRecord, s selection.State) Table {
	active, _ := selection.ActiveBus(buses, s)
	return Build(selection.CurrentSchedule(buses, s), s.StopName, active, s.BusID)
}

func TestBuildHighlightsSelectedStop(t *testing.T) {
	table := buildFor(fleet(), selection.State{BusID: "BusA", StopName: "S1"})

	if table.Title != "Bus Schedule (BusA)" {
		t.Errorf("Title = %q", table.Title)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if !table.Rows[0].Highlighted || table.Rows[1].Highlighted {
		t.Errorf("unexpected highlight %+v", table.Rows)
	}
	if table.Note == "" || table.Placeholder != "" {
		t.Errorf("note=%q placeholder=%q", table.Note, table.Placeholder)
	}
}

func TestBuildNextStopFallback(t *testing.T) {
	table := buildFor(fleet(), selection.State{BusID: "BusA"})
	name, ok := table.HighlightedRow()
	if !ok || name != "S2" {
		t.Errorf("HighlightedRow() = %q, %v", name, ok)
	}
}

func TestBuildToggleOffShowsFirstBusWithoutHighlight(t *testing.T) {
	table := buildFor(fleet(), selection.State{})

	if table.Title != "Bus Schedule (All Routes)" {
		t.Errorf("Title = %q", table.Title)
	}
	if len(table.Rows) != 2 || table.Rows[0].Stop != "S1" {
		t.Fatalf("expected first bus's stops, got %+v", table.Rows)
	}
	if _, ok := table.HighlightedRow(); ok {
		t.Error("expected no highlighted row")
	}
	if table.Note != "" {
		t.Errorf("note should be hidden, got %q", table.Note)
	}
}

func TestBuildEmptyScheduleShowsPlaceholder(t *testing.T) {
	table := buildFor(nil, selection.State{})

	if !table.Empty() || table.Placeholder != Placeholder {
		t.Errorf("expected placeholder, got %+v", table)
	}
	if table.Rows == nil {
		t.Error("Rows should be an empty slice, not nil")
	}
}

func TestBuildStaleStop(t *testing.T) {
	table := buildFor(fleet(), selection.State{BusID: "BusB", StopName: "S1"})
	if _, ok := table.HighlightedRow(); ok {
		t.Error("stale stop name must not highlight a row")
	}
}

func TestClickRow(t *testing.T) {
	table := buildFor(fleet(), selection.State{BusID: "BusA"})

	if name, ok := table.ClickRow(1); !ok || name != "S2" {
		t.Errorf("ClickRow(1) = %q, %v", name, ok)
	}
	for _, i := range []int{-1, 2} {
		if _, ok := table.ClickRow(i); ok {
			t.Errorf("ClickRow(%d) should be rejected", i)
		}
	}
}

func TestHighlightMatchesMapPresenter(t *testing.T) {
	states := []selection.State{
		{BusID: "BusA", StopName: "S1"},
		{BusID: "BusA", StopName: "S2"},
		{BusID: "BusA"},
		{BusID: "BusB"},
		{BusID: "BusB", StopName: "Stale"},
	}
	buses := fleet()
	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			active, ok := selection.ActiveBus(buses, s)
			if !ok {
				t.Fatalf("no active bus for %v", s)
			}
			table := Build(active.Stops, s.StopName, active, s.BusID)
			drawing := mapview.BuildDrawing(active, s.StopName)

			rowName, rowOK := table.HighlightedRow()
			markerName, markerOK := drawing.HighlightedMarker()
			if rowName != markerName || rowOK != markerOK {
				t.Errorf("table highlights %q (%v), map highlights %q (%v)", rowName, rowOK, markerName, markerOK)
			}
		})
	}
}
