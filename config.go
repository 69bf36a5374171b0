package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"directions-route/mapview"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Configuration struct {
	DirectionsAPIKey        string
	GoogleMapsBackendAPIKey string
	DirectionsURL           string
	DeviceToken             string
	ClientName              string
	AcceptLanguage          string
	Port                    string
	Viewport                mapview.Viewport
	RouteRequestsPerMinute  float64
	LogLevel                string
}

func loadConfiguration() (Configuration, error) {
	err := godotenv.Load()
	// It's okay if an environment file is not provided...
	if err != nil {
		logrus.Info("No environment file provided")
	}

	// ...but the directions key must exist one way or another
	directionsKey, present := os.LookupEnv("DIRECTIONS_API_KEY")
	if !present || directionsKey == "" {
		return Configuration{}, errors.New("directions API key is not present")
	}

	config := Configuration{
		DirectionsAPIKey:        directionsKey,
		GoogleMapsBackendAPIKey: getEnv("MAPS_BACKEND", directionsKey),
		DirectionsURL:           getEnv("DIRECTIONS_URL", ""),
		DeviceToken:             getEnv("DEVICE_TOKEN", "anonymous"),
		ClientName:              getEnv("CLIENT_NAME", "directions-route"),
		AcceptLanguage:          getEnv("ACCEPT_LANGUAGE", "en"),
		Port:                    getEnv("PORT", "5000"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	if config.Viewport.Width, err = getEnvFloat("VIEWPORT_WIDTH", 375); err != nil {
		return Configuration{}, err
	}
	if config.Viewport.Height, err = getEnvFloat("VIEWPORT_HEIGHT", 667); err != nil {
		return Configuration{}, err
	}
	if config.RouteRequestsPerMinute, err = getEnvFloat("ROUTE_RATE_PER_MINUTE", 30); err != nil {
		return Configuration{}, err
	}
	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, value)
	}
	return f, nil
}
