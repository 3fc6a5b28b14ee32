package selection

import (
	"testing"

	"github.com/amana-transportation/fleetview/models"
)

func stop(name string) models.Stop {
	return models.Stop{Name: name, NextArrival: "10:00"}
}

// scenarioBuses is [BusA{S1,S2}, BusB{S3}].
func scenarioBuses() []models.BusRecord {
	return []models.BusRecord{
		{ID: "BusA", Status: models.StatusActive, NextStop: "S2", Stops: []models.Stop{stop("S1"), stop("S2")}},
		{ID: "BusB", Status: models.StatusInactive, NextStop: "S3", Stops: []models.Stop{stop("S3")}},
	}
}

func TestLoadSelectsFirstBusAndFirstStop(t *testing.T) {
	m := NewMachine()
	tr := m.Load(scenarioBuses())

	want := State{BusID: "BusA", StopName: "S1"}
	if m.State() != want {
		t.Fatalf("State() = %v, want %v", m.State(), want)
	}
	if !tr.Changed() || tr.Event != EventLoad {
		t.Errorf("unexpected transition %+v", tr)
	}
}

func TestLoadFirstBusWithoutStops(t *testing.T) {
	m := NewMachine()
	m.Load([]models.BusRecord{{ID: "Empty"}, {ID: "Other", Stops: []models.Stop{stop("X")}}})

	if m.State() != (State{BusID: "Empty"}) {
		t.Errorf("State() = %v", m.State())
	}
}

func TestLoadEmptySourceStaysUnselected(t *testing.T) {
	m := NewMachine()
	m.Load(nil)

	if m.State().HasBus() {
		t.Errorf("expected NoBusSelected, got %v", m.State())
	}
	if got := m.CurrentSchedule(); len(got) != 0 {
		t.Errorf("expected empty schedule, got %v", got)
	}
	if _, ok := m.ActiveBus(); ok {
		t.Error("expected no active bus")
	}
}

func TestLoadInitialStateForAnyNonEmptyList(t *testing.T) {
	for n := 1; n <= 5; n++ {
		buses := make([]models.BusRecord, n)
		for i := range buses {
			buses[i] = models.BusRecord{ID: string(rune('A' + i)), Stops: []models.Stop{stop("first"), stop("second")}}
		}
		m := NewMachine()
		m.Load(buses)
		if m.State() != (State{BusID: "A", StopName: "first"}) {
			t.Errorf("n=%d: State() = %v", n, m.State())
		}
	}
}

func TestSelectBusTwiceTogglesOff(t *testing.T) {
	for _, id := range []string{"BusA", "BusB", "Unknown"} {
		t.Run(id, func(t *testing.T) {
			m := NewMachine()
			m.Load(scenarioBuses())
			m.SelectStop("S2")

			m.SelectBus(id)
			m.SelectBus(id)
			// From BusSelected(BusA, S2), two clicks on BusA end selected;
			// two clicks on any other bus end deselected.
			if id == "BusA" {
				if m.State() != (State{BusID: "BusA"}) {
					t.Errorf("State() = %v", m.State())
				}
				return
			}
			if m.State().HasBus() {
				t.Errorf("expected NoBusSelected, got %v", m.State())
			}
		})
	}
}

func TestSelectBusSameIDFromSelected(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectBus("BusB")

	tr := m.SelectBus("BusB")
	if m.State() != (State{}) {
		t.Errorf("State() = %v, want NoBusSelected", m.State())
	}
	if tr.From != (State{BusID: "BusB"}) {
		t.Errorf("From = %v", tr.From)
	}
}

func TestSelectBusAlwaysClearsStop(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectStop("S2")

	m.SelectBus("BusB")
	if m.State() != (State{BusID: "BusB"}) {
		t.Errorf("State() = %v, want BusSelected(BusB)", m.State())
	}

	m.SelectStop("S3")
	m.SelectBus("BusB")
	if m.State() != (State{}) {
		t.Errorf("State() = %v, want NoBusSelected", m.State())
	}
}

func TestSelectStopWithoutBusIsNoop(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectBus("BusA")

	tr := m.SelectStop("S1")
	if tr.Changed() {
		t.Errorf("expected no change, got %+v", tr)
	}
	if m.State() != (State{}) {
		t.Errorf("State() = %v", m.State())
	}
}

func TestSelectStopKeepsBus(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())

	tr := m.SelectStop("S2")
	if m.State() != (State{BusID: "BusA", StopName: "S2"}) {
		t.Errorf("State() = %v", m.State())
	}
	if tr.From.StopName != "S1" || tr.To.StopName != "S2" {
		t.Errorf("unexpected transition %+v", tr)
	}
}

func TestInitialLoadHighlightsFirstStop(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())

	bus, ok := m.ActiveBus()
	if !ok || bus.ID != "BusA" {
		t.Fatalf("ActiveBus() = %v, %v", bus, ok)
	}
	name, ok := HighlightedStop(m.CurrentSchedule(), m.State().StopName, bus)
	if !ok || name != "S1" {
		t.Errorf("HighlightedStop() = %q, %v; want S1", name, ok)
	}
}

func TestToggleOffFallsBackToFirstBusSchedule(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectBus("BusA")

	if m.State() != (State{}) {
		t.Fatalf("State() = %v, want NoBusSelected", m.State())
	}
	schedule := m.CurrentSchedule()
	if len(schedule) != 2 || schedule[0].Name != "S1" {
		t.Fatalf("CurrentSchedule() = %v, want BusA's stops", schedule)
	}
	bus, _ := m.ActiveBus()
	if _, ok := HighlightedStop(schedule, m.State().StopName, bus); ok {
		t.Error("expected nothing highlighted after toggle-off")
	}
}

func TestSelectStopMovesHighlight(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectStop("S2")

	bus, _ := m.ActiveBus()
	name, ok := HighlightedStop(m.CurrentSchedule(), m.State().StopName, bus)
	if !ok || name != "S2" {
		t.Errorf("HighlightedStop() = %q, %v; want S2", name, ok)
	}
}

func TestHighlightFallsBackToNextStop(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectBus("BusB")

	bus, _ := m.ActiveBus()
	name, ok := HighlightedStop(m.CurrentSchedule(), m.State().StopName, bus)
	if !ok || name != "S3" {
		t.Errorf("HighlightedStop() = %q, %v; want next stop S3", name, ok)
	}
}

func TestStaleStopNameHighlightsNothing(t *testing.T) {
	m := NewMachine()
	m.Load(scenarioBuses())
	m.SelectStop("Nowhere")

	bus, _ := m.ActiveBus()
	if i := HighlightedIndex(m.CurrentSchedule(), m.State().StopName, bus); i != -1 {
		t.Errorf("HighlightedIndex() = %d, want -1", i)
	}
}

func TestHighlightDuplicateNamesFirstMatch(t *testing.T) {
	schedule := []models.Stop{stop("X"), stop("Y"), stop("X")}
	if i := HighlightedIndex(schedule, "X", nil); i != 0 {
		t.Errorf("HighlightedIndex() = %d, want 0", i)
	}
}

func TestUnknownActiveBusFallsBack(t *testing.T) {
	buses := scenarioBuses()
	s := State{BusID: "Gone", StopName: "S1"}

	if _, ok := ActiveBus(buses, s); ok {
		t.Error("expected no active bus")
	}
	if got := CurrentSchedule(buses, s); len(got) != 2 {
		t.Errorf("CurrentSchedule() = %v, want first bus's stops", got)
	}
	if got := CurrentSchedule(nil, s); got == nil || len(got) != 0 {
		t.Errorf("CurrentSchedule(nil) = %#v, want empty non-nil", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{State{}, "NoBusSelected"},
		{State{BusID: "Bus 1"}, "BusSelected(Bus 1)"},
		{State{BusID: "Bus 1", StopName: "Tuba Stop"}, "BusSelected(Bus 1, Tuba Stop)"},
	}
	for _, tc := range tests {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
