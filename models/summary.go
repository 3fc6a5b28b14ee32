package models

// FleetSummary is the operational overview of a loaded fleet snapshot
type FleetSummary struct {
	TotalBuses      int `json:"totalBuses"`
	ActiveBuses     int `json:"activeBuses"`
	InactiveBuses   int `json:"inactiveBuses"`
	OtherBuses      int `json:"otherBuses"`
	TotalPassengers int `json:"totalPassengers"`
	TotalStops      int `json:"totalStops"`
}

// Summarize counts buses by status and totals passengers and stops
func Summarize(buses []BusRecord) FleetSummary {
	s := FleetSummary{TotalBuses: len(buses)}
	for _, b := range buses {
		switch b.Status {
		case StatusActive:
			s.ActiveBuses++
		case StatusInactive:
			s.InactiveBuses++
		default:
			s.OtherBuses++
		}
		s.TotalPassengers += b.Passengers
		s.TotalStops += len(b.Stops)
	}
	return s
}
