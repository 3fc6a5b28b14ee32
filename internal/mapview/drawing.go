package mapview

import (
	"fmt"
	"html"

	"github.com/amana-transportation/fleetview/internal/selection"
	"github.com/amana-transportation/fleetview/models"
)

// IconKind selects the marker icon drawn for a stop
type IconKind string

const (
	// IconPin marks an ordinary stop
	IconPin IconKind = "pin"
	// IconBus marks the highlighted stop
	IconBus IconKind = "bus"
)

// Route line style
const (
	RouteColor   = "red"
	RouteWeight  = 4
	RouteOpacity = 0.7
)

// FitPadding is the pixel padding applied when framing a route
const FitPadding = 50

// DefaultViewport is the overview framing used when no bus is active
var DefaultViewport = Viewport{
	Center: &models.LatLng{Lat: 31.95, Lng: 35.92},
	Zoom:   12,
}

// Polyline is the connecting route line through a bus's stops
type Polyline struct {
	Coords  []models.LatLng `json:"coords"`
	Color   string          `json:"color"`
	Weight  int             `json:"weight"`
	Opacity float64         `json:"opacity"`
}

// Marker is one stop marker on the map
type Marker struct {
	StopName    string        `json:"stopName"`
	Position    models.LatLng `json:"position"`
	Icon        IconKind      `json:"icon"`
	Popup       string        `json:"popup"`
	PopupOpen   bool          `json:"popupOpen"`
	Highlighted bool          `json:"highlighted"`
}

// Bounds is a lat/lng bounding box
type Bounds struct {
	SouthWest models.LatLng `json:"southWest"`
	NorthEast models.LatLng `json:"northEast"`
}

// Viewport frames the map either around a centre and zoom, or to fit bounds
type Viewport struct {
	Center  *models.LatLng `json:"center,omitempty"`
	Zoom    int            `json:"zoom,omitempty"`
	Bounds  *Bounds        `json:"bounds,omitempty"`
	Padding int            `json:"padding,omitempty"`
}

// Drawing is the full set of instructions for one redraw of an active bus
type Drawing struct {
	BusID        string    `json:"busId"`
	SelectedStop string    `json:"selectedStop,omitempty"`
	Route        *Polyline `json:"route,omitempty"`
	Markers      []Marker  `json:"markers"`
	// Viewport is nil when there is nothing to frame; the widget keeps its view.
	Viewport *Viewport `json:"viewport,omitempty"`
}

// BuildDrawing computes the route line, markers and framing for bus.
// The highlighted marker follows the same rule as the schedule table.
func BuildDrawing(bus *models.BusRecord, selectedStop string) Drawing {
	d := Drawing{
		BusID:        bus.ID,
		SelectedStop: selectedStop,
		Markers:      make([]Marker, 0, len(bus.Stops)),
	}

	coords := bus.Coords()
	if len(coords) > 0 {
		d.Route = &Polyline{
			Coords:  coords,
			Color:   RouteColor,
			Weight:  RouteWeight,
			Opacity: RouteOpacity,
		}
	}

	highlighted := selection.HighlightedIndex(bus.Stops, selectedStop, bus)
	for i, stop := range bus.Stops {
		isHighlighted := i == highlighted
		icon := IconPin
		if isHighlighted {
			icon = IconBus
		}
		d.Markers = append(d.Markers, Marker{
			StopName:    stop.Name,
			Position:    stop.Coords,
			Icon:        icon,
			Popup:       popupHTML(bus.ID, stop),
			PopupOpen:   isHighlighted,
			Highlighted: isHighlighted,
		})
	}

	if b, ok := boundsOf(coords); ok {
		d.Viewport = &Viewport{Bounds: &b, Padding: FitPadding}
	}
	return d
}

// HighlightedMarker returns the highlighted marker's stop name, if any
func (d Drawing) HighlightedMarker() (string, bool) {
	for _, m := range d.Markers {
		if m.Highlighted {
			return m.StopName, true
		}
	}
	return "", false
}

func popupHTML(busID string, stop models.Stop) string {
	return fmt.Sprintf("<b>%s</b>: %s<br/>Next Arrival: %s",
		html.EscapeString(busID),
		html.EscapeString(stop.Name),
		html.EscapeString(stop.NextArrival),
	)
}

func boundsOf(coords []models.LatLng) (Bounds, bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SouthWest: coords[0], NorthEast: coords[0]}
	for _, c := range coords[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, c.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, c.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, c.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, c.Lng)
	}
	return b, true
}
