package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"directions-route/directions"
	"directions-route/geo"
	"directions-route/mapview"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const snapshotTimeout = 2 * time.Second

// MapController is the set of user actions the map screen accepts.
type MapController interface {
	ShowPreset(city mapview.City) error
	RequestRoute(origin, destination geo.Coordinate, waypoints []geo.Coordinate) (string, error)
	PresetRoute() (string, error)
	LocationUpdated(coord geo.Coordinate) error
	Gesture()
	Snapshot(ctx context.Context) (mapview.Snapshot, error)
}

type CoordinateInput struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

func (in CoordinateInput) coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
}

type RouteInput struct {
	Origin      CoordinateInput   `json:"origin"`
	Destination CoordinateInput   `json:"destination"`
	Waypoints   []CoordinateInput `json:"waypoints" binding:"omitempty,dive"`
}

func (in RouteInput) waypoints() []geo.Coordinate {
	if len(in.Waypoints) == 0 {
		return nil
	}
	coords := make([]geo.Coordinate, 0, len(in.Waypoints))
	for _, wp := range in.Waypoints {
		coords = append(coords, wp.coordinate())
	}
	return coords
}

func allowCrossOrigin(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Next()
}

// throttle rejects requests once the token bucket is empty.
func throttle(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many route requests"})
			return
		}
		c.Next()
	}
}

func RequestRoute(c *gin.Context, controller MapController) {
	var input RouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.Warnf("Unable to decode route request: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to decode route request"})
		return
	}

	requestID, err := controller.RequestRoute(input.Origin.coordinate(), input.Destination.coordinate(), input.waypoints())
	if err != nil {
		respondRouteError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requestId": requestID})
}

func RequestPresetRoute(c *gin.Context, controller MapController) {
	requestID, err := controller.PresetRoute()
	if err != nil {
		respondRouteError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requestId": requestID})
}

func respondRouteError(c *gin.Context, err error) {
	if errors.Is(err, geo.ErrOutOfRange) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	logrus.Errorf("Unable to request route: %s", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to request route"})
}

func ShowPreset(c *gin.Context, controller MapController) {
	err := controller.ShowPreset(mapview.City(c.Param("city")))
	if errors.Is(err, mapview.ErrUnknownCity) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown city"})
		return
	}
	if err != nil {
		logrus.Errorf("Unable to show city: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to show city"})
		return
	}
	c.Status(http.StatusNoContent)
}

func UpdateLocation(c *gin.Context, controller MapController) {
	var input CoordinateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.Warnf("Unable to decode location: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to decode location"})
		return
	}
	if err := controller.LocationUpdated(input.coordinate()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func MapGesture(c *gin.Context, controller MapController) {
	controller.Gesture()
	c.Status(http.StatusNoContent)
}

func GetMap(c *gin.Context, controller MapController) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), snapshotTimeout)
	defer cancel()

	snapshot, err := controller.Snapshot(ctx)
	if err != nil {
		logrus.Errorf("Unable to read map state: %s", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to read map state"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func GetDirections(c *gin.Context, directionsRetriever directions.DirectionsRetriever) {
	var input RouteInput
	err := c.ShouldBindJSON(&input)
	if err != nil {
		logrus.Warnf("Unable to decode directions: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to decode directions"})
		return
	}

	routes, directionsErr := directionsRetriever.Retrieve(c.Request.Context(), directions.RoutePoints{
		Origin:      input.Origin.coordinate(),
		Destination: input.Destination.coordinate(),
		Waypoints:   input.waypoints(),
	})
	if directionsErr != nil {
		logrus.Errorf("Unable to get directions: %s", directionsErr.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to get directions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"routes": routes, "travelMode": "DRIVING"})
}

func GetServerTime(c *gin.Context, serverTimeRetriever ServerTimeRetriever) {
	currTime, err := serverTimeRetriever.Retrieve()
	if err != nil {
		logrus.Errorf("Unable to get server time: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to get server time"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"time": currTime})
}

// routerDeps is everything newRouter wires into the HTTP surface.
type routerDeps struct {
	controller   MapController
	directions   directions.DirectionsRetriever
	serverTime   ServerTimeRetriever
	routeLimiter *rate.Limiter
	logger       *logrus.Logger
}

func newRouter(deps routerDeps) *gin.Engine {
	serv := gin.New()
	serv.Use(gin.Recovery(), requestLogger(deps.logger), allowCrossOrigin)

	limited := throttle(deps.routeLimiter)

	serv.POST("/route", limited, func(c *gin.Context) {
		RequestRoute(c, deps.controller)
	})
	serv.POST("/presets/route", limited, func(c *gin.Context) {
		RequestPresetRoute(c, deps.controller)
	})
	serv.POST("/presets/city/:city", func(c *gin.Context) {
		ShowPreset(c, deps.controller)
	})
	serv.POST("/location", func(c *gin.Context) {
		UpdateLocation(c, deps.controller)
	})
	serv.POST("/gesture", func(c *gin.Context) {
		MapGesture(c, deps.controller)
	})
	serv.GET("/map", func(c *gin.Context) {
		GetMap(c, deps.controller)
	})
	serv.POST("/directions", limited, func(c *gin.Context) {
		GetDirections(c, deps.directions)
	})
	serv.GET("/servertime", func(c *gin.Context) {
		GetServerTime(c, deps.serverTime)
	})
	return serv
}
