package geo

import (
	"math"

	"googlemaps.github.io/maps"
)

var EARTH_RADIUS float64 = 6371009

const (
	tileSize = 256
	maxZoom  = 21
)

// Bounds is the smallest lat/lng box containing a path.
type Bounds struct {
	SouthWest Coordinate `json:"southWest"`
	NorthEast Coordinate `json:"northEast"`
}

// Distance between two coords in meters
func DistanceBetween(from, to maps.LatLng) float64 {
	return computeAngleBetween(from, to) * EARTH_RADIUS
}

// PathLength sums the great circle distance between consecutive points.
func PathLength(path []maps.LatLng) float64 {
	total := float64(0)
	for i := 1; i < len(path); i++ {
		total += DistanceBetween(path[i-1], path[i])
	}
	return total
}

// BoundsOf returns false for an empty path.
func BoundsOf(path []maps.LatLng) (Bounds, bool) {
	if len(path) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		SouthWest: FromLatLng(path[0]),
		NorthEast: FromLatLng(path[0]),
	}
	for _, p := range path[1:] {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	}
	return b, true
}

func (b Bounds) Center() Coordinate {
	return Coordinate{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.SouthWest.Lat && c.Lat <= b.NorthEast.Lat &&
		c.Lng >= b.SouthWest.Lng && c.Lng <= b.NorthEast.Lng
}

// FitZoom returns the largest web mercator zoom level at which the bounds fit
// inside a width x height viewport after removing padding on every side.
func FitZoom(b Bounds, width, height, padding float64) float64 {
	usableWidth := width - 2*padding
	usableHeight := height - 2*padding
	if usableWidth <= 0 || usableHeight <= 0 {
		return 0
	}

	lngFraction := (b.NorthEast.Lng - b.SouthWest.Lng) / 360
	latFraction := (mercatorY(b.NorthEast.Lat) - mercatorY(b.SouthWest.Lat)) / (2 * math.Pi)

	zoom := float64(maxZoom)
	if lngFraction > 0 {
		zoom = math.Min(zoom, math.Log2(usableWidth/tileSize/lngFraction))
	}
	if latFraction > 0 {
		zoom = math.Min(zoom, math.Log2(usableHeight/tileSize/latFraction))
	}
	return math.Max(zoom, 0)
}

func mercatorY(lat float64) float64 {
	s := math.Sin(degToRad(lat))
	y := math.Log((1+s)/(1-s)) / 2
	return math.Max(math.Min(y, math.Pi), -math.Pi)
}

func distanceRadians(lat1, lng1, lat2, lng2 float64) float64 {
	return arcHav(havDistance(lat1, lat2, lng1-lng2))
}

func computeAngleBetween(from, to maps.LatLng) float64 {
	return distanceRadians(degToRad(from.Lat), degToRad(from.Lng), degToRad(to.Lat), degToRad(to.Lng))
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

func arcHav(x float64) float64 {
	return 2 * math.Asin(math.Sqrt(x))
}

func havDistance(lat1 float64, lat2 float64, dLng float64) float64 {
	return hav(lat1-lat2) + hav(dLng)*math.Cos(lat1)*math.Cos(lat2)
}

func hav(x float64) float64 {
	return math.Sin(x*0.5) * math.Sin(x*0.5)
}
