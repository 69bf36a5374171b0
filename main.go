package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directions-route/directions"
	"directions-route/mapview"
	"directions-route/uiloop"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

const shutdownTimeout = 5 * time.Second

func main() {
	config, err := loadConfiguration()
	if err != nil {
		logrus.Fatalf("Unable to load configuration: %s", err.Error())
	}

	logger := newLogger(config.LogLevel)
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)
	logger.Info("Starting server...")

	loop := uiloop.New(logger)

	fetcher, err := directions.NewFetcher(directions.Config{
		URL:            config.DirectionsURL,
		DeviceToken:    config.DeviceToken,
		ClientName:     config.ClientName,
		AcceptLanguage: config.AcceptLanguage,
	}, directions.WithDispatcher(loop), directions.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Unable to make directions fetcher: %s", err.Error())
	}

	mapClient, err := maps.NewClient(maps.WithAPIKey(config.GoogleMapsBackendAPIKey))
	if err != nil {
		logger.Fatalf("Unable to make map client: %s", err.Error())
	}

	controller := mapview.NewController(loop, fetcher, config.DirectionsAPIKey, config.Viewport, logger)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(routerDeps{
		controller:   controller,
		directions:   directions.NewSDKClient(mapClient),
		serverTime:   &ServerTimeClient{},
		routeLimiter: rate.NewLimiter(rate.Limit(config.RouteRequestsPerMinute/60), 5),
		logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Listening on port: " + config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("Server stopped: %s", err.Error())
	}
	logger.Info("Server stopped")
}
