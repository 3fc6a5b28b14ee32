// Package dashboard runs one selection state machine per viewer and keeps
// the map, schedule and selector views derived from it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/amana-transportation/fleetview/internal/mapview"
	"github.com/amana-transportation/fleetview/internal/selection"
	"github.com/amana-transportation/fleetview/internal/source"
	"github.com/amana-transportation/fleetview/models"
)

var (
	// ErrLoading is returned for click events that arrive before the
	// initial load has resolved
	ErrLoading = errors.New("dashboard is still loading")
	// ErrUnknownMarker is returned for a click on a marker that is not drawn
	ErrUnknownMarker = errors.New("no such marker on the map")
	// ErrUnknownControl is returned for a click on a bus the selector does not show
	ErrUnknownControl = errors.New("no such bus in the selector")
	// ErrUnknownRow is returned for a click outside the schedule table
	ErrUnknownRow = errors.New("no such schedule row")
	// ErrClosed is returned for events on a closed session
	ErrClosed = errors.New("dashboard session closed")
)

// Session is one mounted dashboard. All events are serialized by mu.
type Session struct {
	id       string
	observer Observer
	now      func() time.Time

	mu        sync.Mutex
	machine   *selection.Machine
	widget    *mapview.LayerWidget
	presenter *mapview.Presenter
	loaded    bool
	loadErr   error
	closed    bool
	lastSeen  time.Time

	loadOnce sync.Once
	ready    chan struct{}
	cancel   context.CancelFunc
}

// NewSession mounts a fresh map widget for the session. observer may be nil.
func NewSession(id string, observer Observer) *Session {
	return newSession(id, observer, time.Now)
}

func newSession(id string, observer Observer, now func() time.Time) *Session {
	if observer == nil {
		observer = NopObserver{}
	}
	s := &Session{
		id:       id,
		observer: observer,
		now:      now,
		machine:  selection.NewMachine(),
		widget:   mapview.NewLayerWidget(),
		ready:    make(chan struct{}),
		cancel:   func() {},
		lastSeen: now(),
	}
	s.presenter = mapview.Mount(s.widget, s.markerClickedLocked)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Ready is closed once the initial load has resolved, successfully or not
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Load fetches the fleet and applies the initial selection. Only the
// first call does anything; a failure leaves the session empty with
// nothing selected.
func (s *Session) Load(ctx context.Context, src source.Source) {
	s.loadOnce.Do(func() {
		defer close(s.ready)

		buses, err := src.GetAllBuses(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		s.loaded = true
		if s.closed {
			return
		}
		if err != nil {
			log.Printf("Dashboard %s: failed to load buses: %v", s.id, err)
			s.loadErr = err
			buses = nil
		}
		if buses == nil {
			buses = []models.BusRecord{}
		}

		t := s.machine.Load(buses)
		s.observer.Loaded(s.id, len(buses), err)
		s.observer.Transitioned(s.id, t)
		s.renderLocked()
		log.Printf("Dashboard %s: loaded %d buses, %s", s.id, len(buses), t.To)
	})
}

// ToggleBus applies a selector click
func (s *Session) ToggleBus(busID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(); err != nil {
		return View{}, err
	}
	s.applyLocked(s.machine.SelectBus(busID))
	return s.viewLocked(), nil
}

// SelectStop applies a schedule row click
func (s *Session) SelectStop(name string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(); err != nil {
		return View{}, err
	}
	s.applyLocked(s.machine.SelectStop(name))
	return s.viewLocked(), nil
}

// ClickMarker routes a map marker click through the presenter
func (s *Session) ClickMarker(name string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(); err != nil {
		return View{}, err
	}
	if !s.presenter.ClickStop(name) {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownMarker, name)
	}
	return s.viewLocked(), nil
}

// ClickControl routes a selector button click through the rendered bar
func (s *Session) ClickControl(busID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(); err != nil {
		return View{}, err
	}
	id, ok := s.viewLocked().Selector.Click(busID)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownControl, busID)
	}
	s.applyLocked(s.machine.SelectBus(id))
	return s.viewLocked(), nil
}

// ClickRow routes a click on schedule row i through the rendered table
func (s *Session) ClickRow(i int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(); err != nil {
		return View{}, err
	}
	name, ok := s.viewLocked().Schedule.ClickRow(i)
	if !ok {
		return View{}, fmt.Errorf("%w: %d", ErrUnknownRow, i)
	}
	s.applyLocked(s.machine.SelectStop(name))
	return s.viewLocked(), nil
}

// View returns the current derived view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.now()
	return s.viewLocked()
}

// Redraws reports how many times the map has been redrawn
func (s *Session) Redraws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presenter.Redraws()
}

// LastSeen is the time of the last event or view
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels a pending load and destroys the map widget. It is safe
// to call more than once.
func (s *Session) Close() error {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.presenter.Close()
}

func (s *Session) acceptLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !s.loaded {
		return ErrLoading
	}
	s.lastSeen = s.now()
	return nil
}

// markerClickedLocked is the presenter's stop-clicked callback. It runs
// inside ClickMarker with s.mu held.
func (s *Session) markerClickedLocked(name string) {
	s.applyLocked(s.machine.SelectStop(name))
}

func (s *Session) applyLocked(t selection.Transition) {
	s.observer.Transitioned(s.id, t)
	if t.Changed() {
		s.renderLocked()
	}
}

func (s *Session) renderLocked() {
	bus, _ := s.machine.ActiveBus()
	if err := s.presenter.Render(bus, s.machine.State().StopName); err != nil {
		log.Printf("Dashboard %s: %v", s.id, err)
		return
	}
	s.observer.Redrawn(s.id)
}
