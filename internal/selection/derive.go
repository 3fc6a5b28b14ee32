package selection

import "github.com/amana-transportation/fleetview/models"

// ActiveBus returns the bus whose id matches the selected bus, if any.
func ActiveBus(buses []models.BusRecord, s State) (*models.BusRecord, bool) {
	if !s.HasBus() {
		return nil, false
	}
	for i := range buses {
		if buses[i].ID == s.BusID {
			return &buses[i], true
		}
	}
	return nil, false
}

// CurrentSchedule returns the active bus's stops, else the first bus's
// stops, else an empty schedule.
func CurrentSchedule(buses []models.BusRecord, s State) []models.Stop {
	if bus, ok := ActiveBus(buses, s); ok {
		return bus.Stops
	}
	if len(buses) > 0 {
		return buses[0].Stops
	}
	return []models.Stop{}
}

// Highlighted applies the highlight rule to one stop. A selected stop name
// wins; without one, the active bus's declared next stop is highlighted.
func Highlighted(stop models.Stop, selectedStop string, activeBus *models.BusRecord) bool {
	if selectedStop != "" {
		return stop.Name == selectedStop
	}
	if activeBus == nil || activeBus.NextStop == "" {
		return false
	}
	return stop.Name == activeBus.NextStop
}

// HighlightedIndex returns the position of the single highlighted stop in
// schedule, or -1. Duplicate names resolve to the first match.
func HighlightedIndex(schedule []models.Stop, selectedStop string, activeBus *models.BusRecord) int {
	for i, stop := range schedule {
		if Highlighted(stop, selectedStop, activeBus) {
			return i
		}
	}
	return -1
}

// HighlightedStop returns the name of the highlighted stop. A stale
// selected name yields no highlight.
func HighlightedStop(schedule []models.Stop, selectedStop string, activeBus *models.BusRecord) (string, bool) {
	i := HighlightedIndex(schedule, selectedStop, activeBus)
	if i < 0 {
		return "", false
	}
	return schedule[i].Name, true
}
