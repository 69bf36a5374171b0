package geo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mmcloughlin/geohash"
	"googlemaps.github.io/maps"
)

// markerHashPrecision of 9 characters is a cell of roughly 5m x 5m.
const markerHashPrecision = 9

var ErrOutOfRange = errors.New("coordinate out of range")

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrOutOfRange, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrOutOfRange, c.Lng)
	}
	return nil
}

// String formats the coordinate the way the directions API expects it: "lat,lng".
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func (c Coordinate) LatLng() maps.LatLng {
	return maps.LatLng{Lat: c.Lat, Lng: c.Lng}
}

func FromLatLng(ll maps.LatLng) Coordinate {
	return Coordinate{Lat: ll.Lat, Lng: ll.Lng}
}

// Hash returns a geohash identifying the cell the coordinate falls in.
func (c Coordinate) Hash() string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lng, markerHashPrecision)
}
