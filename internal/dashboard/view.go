package dashboard

import (
	"github.com/amana-transportation/fleetview/internal/mapview"
	"github.com/amana-transportation/fleetview/internal/schedule"
	"github.com/amana-transportation/fleetview/internal/selection"
	"github.com/amana-transportation/fleetview/internal/selector"
	"github.com/amana-transportation/fleetview/models"
)

// View is everything the dashboard page renders for one session
type View struct {
	SessionID string              `json:"sessionId"`
	Loading   bool                `json:"loading"`
	LoadError string              `json:"loadError,omitempty"`
	State     selection.State     `json:"state"`
	Status    string              `json:"status"`
	Selector  selector.Bar        `json:"selector"`
	Map       mapview.State       `json:"map"`
	Schedule  schedule.Table      `json:"schedule"`
	Summary   models.FleetSummary `json:"summary"`
}

// viewLocked derives the view from the machine. Caller holds s.mu.
func (s *Session) viewLocked() View {
	state := s.machine.State()
	buses := s.machine.Buses()
	activeBus, _ := s.machine.ActiveBus()

	v := View{
		SessionID: s.id,
		Loading:   !s.loaded,
		State:     state,
		Status:    state.String(),
		Selector:  selector.Build(buses, state.BusID, !s.loaded),
		Map:       s.widget.Snapshot(),
		Schedule:  schedule.Build(s.machine.CurrentSchedule(), state.StopName, activeBus, state.BusID),
		Summary:   models.Summarize(buses),
	}
	if s.loadErr != nil {
		v.LoadError = s.loadErr.Error()
	}
	return v
}
