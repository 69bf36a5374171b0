package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"directions-route/directions"
	"directions-route/geo"
	"directions-route/mapview"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

type routeCall struct {
	origin, destination geo.Coordinate
	waypoints           []geo.Coordinate
}

type fakeController struct {
	routeCalls  []routeCall
	presetCalls int
	cities      []mapview.City
	locations   []geo.Coordinate
	gestures    int
	snapshot    mapview.Snapshot
	routeErr    error
	snapshotErr error
}

func (f *fakeController) ShowPreset(city mapview.City) error {
	if _, ok := mapview.Presets[city]; !ok {
		return mapview.ErrUnknownCity
	}
	f.cities = append(f.cities, city)
	return nil
}

func (f *fakeController) RequestRoute(origin, destination geo.Coordinate, waypoints []geo.Coordinate) (string, error) {
	if f.routeErr != nil {
		return "", f.routeErr
	}
	f.routeCalls = append(f.routeCalls, routeCall{origin, destination, waypoints})
	return "req-1", nil
}

func (f *fakeController) PresetRoute() (string, error) {
	f.presetCalls++
	return "req-preset", f.routeErr
}

func (f *fakeController) LocationUpdated(coord geo.Coordinate) error {
	f.locations = append(f.locations, coord)
	return nil
}

func (f *fakeController) Gesture() {
	f.gestures++
}

func (f *fakeController) Snapshot(context.Context) (mapview.Snapshot, error) {
	return f.snapshot, f.snapshotErr
}

type fakeDirections struct {
	got    directions.RoutePoints
	routes []maps.Route
	err    error
}

func (f *fakeDirections) Retrieve(_ context.Context, routePoints directions.RoutePoints) ([]maps.Route, error) {
	f.got = routePoints
	return f.routes, f.err
}

func setupRouter(controller MapController, retriever directions.DirectionsRetriever, limiter *rate.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logrus.SetOutput(io.Discard)
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	fixed := time.Date(2026, 10, 17, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	return newRouter(routerDeps{
		controller:   controller,
		directions:   retriever,
		serverTime:   &ServerTimeClient{now: func() time.Time { return fixed }},
		routeLimiter: limiter,
		logger:       logger,
	})
}

func perform(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestRoute(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		routeErr   error
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "accepted",
			body:       `{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059}}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  1,
		},
		{
			name:       "accepted with waypoints",
			body:       `{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059},"waypoints":[{"lat":41.8781,"lng":-87.6298}]}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  1,
		},
		{
			name:       "missing destination",
			body:       `{"origin":{"lat":37.7749,"lng":-122.4194}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "latitude out of range",
			body:       `{"origin":{"lat":97.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad waypoint",
			body:       `{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059},"waypoints":[{"lat":1}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not json",
			body:       `origin=sf`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "controller failure",
			body:       `{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059}}`,
			routeErr:   directions.ErrMissingAPIKey,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := &fakeController{routeErr: tt.routeErr}
			rec := perform(setupRouter(controller, &fakeDirections{}, nil), http.MethodPost, "/route", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, controller.routeCalls, tt.wantCalls)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestRoute_PassesCoordinates(t *testing.T) {
	controller := &fakeController{}
	rec := perform(setupRouter(controller, &fakeDirections{}, nil), http.MethodPost, "/route",
		`{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059},"waypoints":[{"lat":0,"lng":0}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body["requestId"])

	require.Len(t, controller.routeCalls, 1)
	call := controller.routeCalls[0]
	assert.Equal(t, geo.Coordinate{Lat: 37.7749, Lng: -122.4194}, call.origin)
	assert.Equal(t, geo.Coordinate{Lat: 40.7128, Lng: -74.0059}, call.destination)
	assert.Equal(t, []geo.Coordinate{{Lat: 0, Lng: 0}}, call.waypoints)
}

func TestRequestRoute_Throttled(t *testing.T) {
	controller := &fakeController{}
	router := setupRouter(controller, &fakeDirections{}, rate.NewLimiter(rate.Every(time.Hour), 1))

	assert.Equal(t, http.StatusAccepted, perform(router, http.MethodPost, "/presets/route", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(router, http.MethodPost, "/presets/route", "").Code)
	assert.Equal(t, 1, controller.presetCalls)
}

func TestRequestPresetRoute(t *testing.T) {
	controller := &fakeController{}
	rec := perform(setupRouter(controller, &fakeDirections{}, nil), http.MethodPost, "/presets/route", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"requestId":"req-preset"}`, rec.Body.String())
}

func TestShowPreset(t *testing.T) {
	controller := &fakeController{}
	router := setupRouter(controller, &fakeDirections{}, nil)

	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodPost, "/presets/city/ny", "").Code)
	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodPost, "/presets/city/sf", "").Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodPost, "/presets/city/paris", "").Code)
	assert.Equal(t, []mapview.City{mapview.NewYork, mapview.SanFrancisco}, controller.cities)
}

func TestUpdateLocationAndGesture(t *testing.T) {
	controller := &fakeController{}
	router := setupRouter(controller, &fakeDirections{}, nil)

	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodPost, "/location", `{"lat":34.0522,"lng":-118.2437}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(router, http.MethodPost, "/location", `{"lat":34.0522}`).Code)
	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodPost, "/gesture", "").Code)

	assert.Equal(t, []geo.Coordinate{{Lat: 34.0522, Lng: -118.2437}}, controller.locations)
	assert.Equal(t, 1, controller.gestures)
}

func TestGetMap(t *testing.T) {
	controller := &fakeController{snapshot: mapview.Snapshot{
		Camera:          mapview.Camera{Center: geo.Coordinate{Lat: 40.7128, Lng: -74.0059}, Zoom: 6},
		Markers:         []mapview.Marker{{ID: "dr5regw3p", Title: "New York City", Position: geo.Coordinate{Lat: 40.7128, Lng: -74.0059}}},
		FollowsLocation: false,
	}}
	rec := perform(setupRouter(controller, &fakeDirections{}, nil), http.MethodGet, "/map", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got mapview.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, controller.snapshot, got)

	controller.snapshotErr = errors.New("ui loop stopped")
	rec = perform(setupRouter(controller, &fakeDirections{}, nil), http.MethodGet, "/map", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetDirections(t *testing.T) {
	retriever := &fakeDirections{routes: []maps.Route{{Summary: "I-80 E", OverviewPolyline: maps.Polyline{Points: "_p~iF~ps|U"}}}}
	router := setupRouter(&fakeController{}, retriever, nil)

	rec := perform(router, http.MethodPost, "/directions",
		`{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Routes     []map[string]interface{} `json:"routes"`
		TravelMode string                   `json:"travelMode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DRIVING", body.TravelMode)
	require.Len(t, body.Routes, 1)
	assert.Equal(t, "I-80 E", body.Routes[0]["summary"])
	assert.Equal(t, geo.Coordinate{Lat: 37.7749, Lng: -122.4194}, retriever.got.Origin)

	retriever.err = errors.New("REQUEST_DENIED")
	rec = perform(router, http.MethodPost, "/directions",
		`{"origin":{"lat":37.7749,"lng":-122.4194},"destination":{"lat":40.7128,"lng":-74.0059}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = perform(router, http.MethodPost, "/directions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetServerTime(t *testing.T) {
	rec := perform(setupRouter(&fakeController{}, &fakeDirections{}, nil), http.MethodGet, "/servertime", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"time":"2026-10-17T10:30:00Z"}`, rec.Body.String())
}
