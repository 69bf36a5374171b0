package mapview

import (
	"context"

	"directions-route/directions"
	"directions-route/geo"

	"github.com/sirupsen/logrus"
)

// RouteRequester issues a directions request and reports back through handle.
type RouteRequester interface {
	RequestRoute(req directions.RouteRequest, handle directions.ResultHandler) (string, error)
}

// Loop is the UI execution context the view is confined to.
type Loop interface {
	Post(fn func())
	Do(ctx context.Context, fn func()) error
}

// Controller owns a MapView and turns user actions into changes applied on
// the UI loop. The RouteRequester must deliver results on the same loop.
type Controller struct {
	view   *MapView
	loop   Loop
	routes RouteRequester
	apiKey string
	log    *logrus.Entry
}

func NewController(loop Loop, routes RouteRequester, apiKey string, viewport Viewport, log *logrus.Logger) *Controller {
	return &Controller{
		view:   NewMapView(viewport),
		loop:   loop,
		routes: routes,
		apiKey: apiKey,
		log:    log.WithField("component", "mapview"),
	}
}

// ShowPreset clears the map and centres it on one of the preset cities.
func (c *Controller) ShowPreset(city City) error {
	p, ok := Presets[city]
	if !ok {
		return ErrUnknownCity
	}
	c.loop.Post(func() {
		c.view.Clear()
		c.view.SuspendFollowing()
		if _, err := c.view.PlacePreset(city); err != nil {
			c.log.Errorf("Unable to place marker: %s", err.Error())
		}
		c.view.MoveCamera(p.Location, PresetZoom)
	})
	return nil
}

// RequestRoute clears the map and asks for a driving route. The route is
// drawn when the response arrives; the most recently completed request wins.
func (c *Controller) RequestRoute(origin, destination geo.Coordinate, waypoints []geo.Coordinate) (string, error) {
	req := directions.RouteRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		APIKey:      c.apiKey,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	c.loop.Post(func() {
		c.view.SuspendFollowing()
		c.view.Clear()
	})

	return c.routes.RequestRoute(req, func(result directions.Result) {
		c.apply(result, origin, destination)
	})
}

// PresetRoute requests the San Francisco to New York route.
func (c *Controller) PresetRoute() (string, error) {
	return c.RequestRoute(Presets[SanFrancisco].Location, Presets[NewYork].Location, nil)
}

func (c *Controller) apply(result directions.Result, origin, destination geo.Coordinate) {
	log := c.log.WithFields(logrus.Fields{"request_id": result.RequestID, "kind": result.Kind})
	if !result.OK() {
		log.Warnf("Unable to draw route: %s", result.Err.Error())
		c.view.RecordError(result.Err)
		return
	}
	if err := c.view.DrawRoute(result.RequestID, result.Points, origin, destination); err != nil {
		log.Errorf("Unable to draw route: %s", err.Error())
		c.view.RecordError(err)
		return
	}
	log.Info("Route drawn")
}

// LocationUpdated reports a new device location.
func (c *Controller) LocationUpdated(coord geo.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	c.loop.Post(func() {
		c.view.UpdateLocation(coord)
	})
	return nil
}

// Gesture reports that the user moved the map by hand.
func (c *Controller) Gesture() {
	c.loop.Post(c.view.SuspendFollowing)
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := c.loop.Do(ctx, func() {
		s = c.view.Snapshot()
	})
	return s, err
}
