package directions

import (
	"context"

	"directions-route/geo"

	"googlemaps.github.io/maps"
)

// RoutePoints is the input of a detailed directions lookup.
type RoutePoints struct {
	Origin      geo.Coordinate   `json:"origin"`
	Destination geo.Coordinate   `json:"destination"`
	Waypoints   []geo.Coordinate `json:"waypoints"`
}

type DirectionsRetriever interface {
	Retrieve(ctx context.Context, routePoints RoutePoints) (routes []maps.Route, err error)
}

// SDKClient returns full driving routes (legs, steps, polylines) through the
// Google Maps client library.
type SDKClient struct {
	mapClient *maps.Client
}

func NewSDKClient(mapClient *maps.Client) *SDKClient {
	return &SDKClient{mapClient: mapClient}
}

func (client *SDKClient) Retrieve(ctx context.Context, routePoints RoutePoints) (routes []maps.Route, err error) {
	request := &maps.DirectionsRequest{
		Origin:      routePoints.Origin.String(),
		Destination: routePoints.Destination.String(),
		Mode:        maps.TravelModeDriving,
	}
	for _, wp := range routePoints.Waypoints {
		request.Waypoints = append(request.Waypoints, wp.String())
	}

	computedRoutes, _, err := client.mapClient.Directions(ctx, request)
	if err != nil {
		return nil, err
	}
	return computedRoutes, nil
}
