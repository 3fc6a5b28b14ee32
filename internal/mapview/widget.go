package mapview

import (
	"errors"
)

// ErrDestroyed is returned by a widget used after Destroy
var ErrDestroyed = errors.New("map widget destroyed")

// Widget is the narrow surface of the external map widget.
// Render replaces the dynamic layer, Clear empties it and reframes the view,
// Destroy releases the instance and anything it injected.
type Widget interface {
	Render(d Drawing) error
	Clear(v Viewport) error
	Destroy() error
}

// Asset is an external resource the widget injects into the page
type Asset struct {
	Kind string `json:"kind"` // "stylesheet" or "script"
	URL  string `json:"url"`
}

// TileLayer describes the base map tiles
type TileLayer struct {
	URLTemplate string `json:"urlTemplate"`
	MaxZoom     int    `json:"maxZoom"`
	Attribution string `json:"attribution"`
}

// Leaflet defaults for the browser-side widget
var (
	LeafletAssets = []Asset{
		{Kind: "stylesheet", URL: "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"},
		{Kind: "script", URL: "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"},
	}
	OSMTiles = TileLayer{
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		MaxZoom:     19,
		Attribution: `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>`,
	}
)

// Layer is the widget's single dynamic layer group
type Layer struct {
	Route   *Polyline `json:"route,omitempty"`
	Markers []Marker  `json:"markers"`
}

// State is a point-in-time copy of a LayerWidget, ready to serialize
type State struct {
	Revision  int       `json:"revision"`
	BusID     string    `json:"busId,omitempty"`
	Layer     Layer     `json:"layer"`
	Viewport  Viewport  `json:"viewport"`
	Tiles     TileLayer `json:"tiles"`
	Assets    []Asset   `json:"assets"`
	Destroyed bool      `json:"destroyed"`
}

// LayerWidget is the in-process widget instance backing one dashboard.
// It keeps one layer group for its whole life and mutates it on every
// redraw; the browser mirrors the serialized State.
// It is not safe for concurrent use.
type LayerWidget struct {
	layer     *Layer
	busID     string
	viewport  Viewport
	tiles     TileLayer
	assets    []Asset
	revision  int
	destroyed bool
}

// NewLayerWidget creates the widget at the default overview framing and
// injects the Leaflet assets.
func NewLayerWidget() *LayerWidget {
	assets := make([]Asset, len(LeafletAssets))
	copy(assets, LeafletAssets)
	return &LayerWidget{
		layer:    &Layer{Markers: []Marker{}},
		viewport: DefaultViewport,
		tiles:    OSMTiles,
		assets:   assets,
	}
}

// Render swaps the drawing into the existing layer group and reframes the
// view when the drawing carries a viewport.
func (w *LayerWidget) Render(d Drawing) error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.layer.Route = d.Route
	w.layer.Markers = append(w.layer.Markers[:0], d.Markers...)
	w.busID = d.BusID
	if d.Viewport != nil {
		w.viewport = *d.Viewport
	}
	w.revision++
	return nil
}

// Clear empties the layer group and resets the framing to v
func (w *LayerWidget) Clear(v Viewport) error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.layer.Route = nil
	w.layer.Markers = w.layer.Markers[:0]
	w.busID = ""
	w.viewport = v
	w.revision++
	return nil
}

// Destroy drops the layer and removes the injected assets. Calling it
// again is a no-op.
func (w *LayerWidget) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.layer = nil
	w.assets = nil
	w.busID = ""
	w.destroyed = true
	return nil
}

// Snapshot copies the widget's current state
func (w *LayerWidget) Snapshot() State {
	s := State{
		Revision:  w.revision,
		BusID:     w.busID,
		Viewport:  w.viewport,
		Tiles:     w.tiles,
		Assets:    append([]Asset(nil), w.assets...),
		Destroyed: w.destroyed,
		Layer:     Layer{Markers: []Marker{}},
	}
	if w.layer != nil {
		s.Layer.Route = w.layer.Route
		s.Layer.Markers = append(s.Layer.Markers, w.layer.Markers...)
	}
	if s.Assets == nil {
		s.Assets = []Asset{}
	}
	return s
}
