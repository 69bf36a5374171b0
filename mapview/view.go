// Package mapview holds the state of the single map screen: where the camera
// is, which markers are placed and which route is drawn. MapView is not safe
// for concurrent use; the Controller confines it to the UI loop.
package mapview

import (
	"errors"
	"fmt"
	"strings"

	"directions-route/geo"

	"googlemaps.github.io/maps"
)

const (
	PresetZoom   = 6
	RoutePadding = 50
)

var ErrUnknownCity = errors.New("unknown city")

type City string

const (
	SanFrancisco City = "sf"
	NewYork      City = "ny"
)

type Preset struct {
	Title    string
	Snippet  string
	Location geo.Coordinate
}

var Presets = map[City]Preset{
	SanFrancisco: {Title: "San Francisco", Snippet: "United States", Location: geo.Coordinate{Lat: 37.7749, Lng: -122.4194}},
	NewYork:      {Title: "New York City", Snippet: "United States", Location: geo.Coordinate{Lat: 40.7128, Lng: -74.0059}},
}

// Viewport is the on-screen size of the map in points.
type Viewport struct {
	Width  float64
	Height float64
}

type Camera struct {
	Center geo.Coordinate `json:"center"`
	Zoom   float64        `json:"zoom"`
}

type Marker struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Snippet  string         `json:"snippet,omitempty"`
	Position geo.Coordinate `json:"position"`
}

type Route struct {
	RequestID    string           `json:"requestId"`
	Encoded      string           `json:"encoded"`
	Path         []geo.Coordinate `json:"path"`
	LengthMeters float64          `json:"lengthMeters"`
	Bounds       *geo.Bounds      `json:"bounds,omitempty"`
}

// Snapshot is a copy of the view state that can leave the UI loop.
type Snapshot struct {
	Camera          Camera   `json:"camera"`
	Markers         []Marker `json:"markers"`
	Route           *Route   `json:"route,omitempty"`
	FollowsLocation bool     `json:"followsLocation"`
	LastError       string   `json:"lastError,omitempty"`
}

type MapView struct {
	viewport       Viewport
	camera         Camera
	markers        []Marker
	route          *Route
	followLocation bool
	lastError      string
}

// NewMapView starts centred on San Francisco, following the user's location.
func NewMapView(viewport Viewport) *MapView {
	return &MapView{
		viewport:       viewport,
		camera:         Camera{Center: Presets[SanFrancisco].Location, Zoom: PresetZoom},
		followLocation: true,
	}
}

// Clear removes markers and the route. The camera stays where it is.
func (v *MapView) Clear() {
	v.markers = nil
	v.route = nil
	v.lastError = ""
}

func (v *MapView) MoveCamera(center geo.Coordinate, zoom float64) {
	v.camera = Camera{Center: center, Zoom: zoom}
}

func (v *MapView) SuspendFollowing() {
	v.followLocation = false
}

// UpdateLocation recentres the camera on the user unless following was
// suspended by a gesture or a menu action. It reports whether the camera moved.
func (v *MapView) UpdateLocation(c geo.Coordinate) bool {
	if !v.followLocation {
		return false
	}
	v.camera.Center = c
	return true
}

// PlaceMarker adds a marker unless one already sits in the same geohash cell.
func (v *MapView) PlaceMarker(title, snippet string, position geo.Coordinate) Marker {
	id := position.Hash()
	for _, m := range v.markers {
		if m.ID == id {
			return m
		}
	}
	m := Marker{ID: id, Title: title, Snippet: snippet, Position: position}
	v.markers = append(v.markers, m)
	return m
}

func (v *MapView) PlacePreset(city City) (Marker, error) {
	p, ok := Presets[city]
	if !ok {
		return Marker{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	return v.PlaceMarker(p.Title, p.Snippet, p.Location), nil
}

// DrawRoute decodes an encoded polyline, replaces the drawn route with it,
// marks both ends and fits the camera around the whole path.
func (v *MapView) DrawRoute(requestID, encoded string, origin, destination geo.Coordinate) error {
	if i := strings.IndexFunc(encoded, func(r rune) bool { return r < '?' || r > '~' }); i >= 0 {
		return fmt.Errorf("decode polyline: invalid character %q at %d", encoded[i], i)
	}
	path, err := maps.DecodePolyline(encoded)
	if err != nil {
		return fmt.Errorf("decode polyline: %w", err)
	}

	route := &Route{
		RequestID:    requestID,
		Encoded:      encoded,
		Path:         make([]geo.Coordinate, 0, len(path)),
		LengthMeters: geo.PathLength(path),
	}
	for _, p := range path {
		route.Path = append(route.Path, geo.FromLatLng(p))
	}
	v.route = route
	v.lastError = ""

	v.placeEndpoint(origin, "Start")
	v.placeEndpoint(destination, "End")

	if bounds, ok := geo.BoundsOf(path); ok {
		route.Bounds = &bounds
		v.camera = Camera{
			Center: bounds.Center(),
			Zoom:   geo.FitZoom(bounds, v.viewport.Width, v.viewport.Height, RoutePadding),
		}
	}
	return nil
}

// placeEndpoint labels a route end with the preset city it matches, if any.
func (v *MapView) placeEndpoint(c geo.Coordinate, fallback string) {
	for _, p := range Presets {
		if p.Location.Hash() == c.Hash() {
			v.PlaceMarker(p.Title, p.Snippet, c)
			return
		}
	}
	v.PlaceMarker(fallback, "", c)
}

func (v *MapView) RecordError(err error) {
	v.lastError = err.Error()
}

func (v *MapView) Snapshot() Snapshot {
	s := Snapshot{
		Camera:          v.camera,
		Markers:         append([]Marker{}, v.markers...),
		FollowsLocation: v.followLocation,
		LastError:       v.lastError,
	}
	if v.route != nil {
		r := *v.route
		r.Path = append([]geo.Coordinate{}, v.route.Path...)
		if v.route.Bounds != nil {
			b := *v.route.Bounds
			r.Bounds = &b
		}
		s.Route = &r
	}
	return s
}
