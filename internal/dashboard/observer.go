package dashboard

import "github.com/amana-transportation/fleetview/internal/selection"

// Observer is told about session lifecycle and selection changes.
// Calls happen with the session lock held and must not block.
type Observer interface {
	SessionOpened(sessionID string)
	SessionClosed(sessionID string)
	Loaded(sessionID string, buses int, err error)
	Transitioned(sessionID string, t selection.Transition)
	Redrawn(sessionID string)
}

// NopObserver ignores everything. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) SessionOpened(string)                      {}
func (NopObserver) SessionClosed(string)                      {}
func (NopObserver) Loaded(string, int, error)                 {}
func (NopObserver) Transitioned(string, selection.Transition) {}
func (NopObserver) Redrawn(string)                            {}

// Observers fans every call out in order
type Observers []Observer

func (o Observers) SessionOpened(id string) {
	for _, obs := range o {
		obs.SessionOpened(id)
	}
}

func (o Observers) SessionClosed(id string) {
	for _, obs := range o {
		obs.SessionClosed(id)
	}
}

func (o Observers) Loaded(id string, buses int, err error) {
	for _, obs := range o {
		obs.Loaded(id, buses, err)
	}
}

func (o Observers) Transitioned(id string, t selection.Transition) {
	for _, obs := range o {
		obs.Transitioned(id, t)
	}
}

func (o Observers) Redrawn(id string) {
	for _, obs := range o {
		obs.Redrawn(id)
	}
}
