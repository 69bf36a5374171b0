package directions

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"directions-route/geo"
)

var ErrMissingAPIKey = errors.New("api key is required")

// RouteRequest is built per user action and never stored.
type RouteRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Waypoints   []geo.Coordinate
	APIKey      string
}

func (r RouteRequest) Validate() error {
	if strings.TrimSpace(r.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	for i, wp := range r.Waypoints {
		if err := wp.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	return nil
}

func (r RouteRequest) query() url.Values {
	q := url.Values{}
	q.Set("origin", r.Origin.String())
	q.Set("destination", r.Destination.String())
	if len(r.Waypoints) > 0 {
		q.Set("waypoints", joinCoordinates(r.Waypoints))
	}
	q.Set("key", r.APIKey)
	return q
}

func joinCoordinates(coords []geo.Coordinate) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, "|")
}
