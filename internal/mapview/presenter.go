// Package mapview turns the active bus and selected stop into drawing
// instructions for the map widget and routes marker clicks back out.
package mapview

import (
	"fmt"

	"github.com/amana-transportation/fleetview/models"
)

// Presenter owns one mounted widget for the lifetime of a dashboard.
// The widget is never exposed; callers only render, click and close.
type Presenter struct {
	widget        Widget
	onStopClicked func(stopName string)
	markers       map[string]struct{}
	redraws       int
	closed        bool
}

// Mount takes ownership of widget. onStopClicked receives marker clicks
// and may be nil.
func Mount(widget Widget, onStopClicked func(stopName string)) *Presenter {
	return &Presenter{
		widget:        widget,
		onStopClicked: onStopClicked,
		markers:       make(map[string]struct{}),
	}
}

// Render redraws the map. With no active bus the layer is cleared and the
// view reset to the default overview.
func (p *Presenter) Render(activeBus *models.BusRecord, selectedStop string) error {
	if p.closed {
		return ErrDestroyed
	}
	clear(p.markers)
	p.redraws++

	if activeBus == nil {
		if err := p.widget.Clear(DefaultViewport); err != nil {
			return fmt.Errorf("failed to clear map: %w", err)
		}
		return nil
	}

	d := BuildDrawing(activeBus, selectedStop)
	if err := p.widget.Render(d); err != nil {
		return fmt.Errorf("failed to render route for %s: %w", activeBus.ID, err)
	}
	for _, m := range d.Markers {
		p.markers[m.StopName] = struct{}{}
	}
	return nil
}

// ClickStop emits the stop-clicked event for a marker on the current
// drawing. It reports false when no such marker is drawn.
func (p *Presenter) ClickStop(name string) bool {
	if p.closed {
		return false
	}
	if _, ok := p.markers[name]; !ok {
		return false
	}
	if p.onStopClicked != nil {
		p.onStopClicked(name)
	}
	return true
}

// Redraws returns how many times Render has run
func (p *Presenter) Redraws() int {
	return p.redraws
}

// Close destroys the widget. It is safe to call more than once.
func (p *Presenter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	clear(p.markers)
	if err := p.widget.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy map widget: %w", err)
	}
	return nil
}
