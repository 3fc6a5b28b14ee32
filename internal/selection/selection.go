// Package selection holds the bus/stop selection state machine and the pure
// derivations (active bus, current schedule, highlighted stop) that every
// dashboard view reads from.
package selection

import (
	"github.com/amana-transportation/fleetview/models"
)

// State is the current selection. An empty BusID means no bus is selected;
// an empty StopName means "fall back to the active bus's next stop".
type State struct {
	BusID    string `json:"selectedBusId,omitempty"`
	StopName string `json:"selectedStopName,omitempty"`
}

// HasBus reports whether the state is BusSelected.
func (s State) HasBus() bool {
	return s.BusID != ""
}

func (s State) String() string {
	if !s.HasBus() {
		return "NoBusSelected"
	}
	if s.StopName == "" {
		return "BusSelected(" + s.BusID + ")"
	}
	return "BusSelected(" + s.BusID + ", " + s.StopName + ")"
}

// Transition records a state change produced by an event.
type Transition struct {
	Event string
	From  State
	To    State
}

// Changed reports whether the event altered the state.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Event names carried by Transition.
const (
	EventLoad       = "load"
	EventSelectBus  = "select_bus"
	EventSelectStop = "select_stop"
)

// Machine owns the loaded bus list and the selection state.
// It is not safe for concurrent use; callers serialize events.
type Machine struct {
	buses []models.BusRecord
	state State
}

// NewMachine returns a machine in NoBusSelected with no buses.
func NewMachine() *Machine {
	return &Machine{}
}

// Load installs the bus list and applies the initial transition: the first
// bus and its first stop, or NoBusSelected when the list is empty.
func (m *Machine) Load(buses []models.BusRecord) Transition {
	from := m.state
	m.buses = buses
	m.state = State{}

	if len(buses) > 0 {
		first := buses[0]
		m.state.BusID = first.ID
		if len(first.Stops) > 0 {
			m.state.StopName = first.Stops[0].Name
		}
	}
	return Transition{Event: EventLoad, From: from, To: m.state}
}

// SelectBus toggles the given bus. Reselecting the selected bus deselects
// it; selecting any bus clears the stop selection.
func (m *Machine) SelectBus(id string) Transition {
	from := m.state
	if m.state.HasBus() && m.state.BusID == id {
		m.state = State{}
	} else {
		m.state = State{BusID: id}
	}
	return Transition{Event: EventSelectBus, From: from, To: m.state}
}

// SelectStop sets the selected stop. It is a no-op when no bus is selected.
func (m *Machine) SelectStop(name string) Transition {
	from := m.state
	if m.state.HasBus() {
		m.state.StopName = name
	}
	return Transition{Event: EventSelectStop, From: from, To: m.state}
}

// State returns the current selection.
func (m *Machine) State() State {
	return m.state
}

// Buses returns the loaded bus list in source order.
func (m *Machine) Buses() []models.BusRecord {
	return m.buses
}

// ActiveBus derives the active bus from the machine's buses and state.
func (m *Machine) ActiveBus() (*models.BusRecord, bool) {
	return ActiveBus(m.buses, m.state)
}

// CurrentSchedule derives the schedule shown for the machine's state.
func (m *Machine) CurrentSchedule() []models.Stop {
	return CurrentSchedule(m.buses, m.state)
}
