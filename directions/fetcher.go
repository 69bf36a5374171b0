package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultURL is the Google Directions API JSON endpoint.
	DefaultURL = "https://maps.googleapis.com/maps/api/directions/json"

	defaultTimeout        = 10 * time.Second
	defaultAcceptLanguage = "en"

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second
)

var ErrMissingHeader = errors.New("header value is required")

// Config holds the endpoint and the fixed header values sent with every request.
type Config struct {
	URL            string
	DeviceToken    string
	ClientName     string
	AcceptLanguage string
	Timeout        time.Duration
}

// Fetcher requests an overview polyline from a directions API and reports
// the outcome to a ResultHandler on its Dispatcher. It keeps no state between
// requests; overlapping requests race and each one reports independently.
type Fetcher struct {
	url        string
	headers    http.Header
	httpClient *http.Client
	dispatcher Dispatcher
	log        *logrus.Entry
}

type Option func(*Fetcher)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithDispatcher sets where result handlers run. Without one they run on the
// request goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(f *Fetcher) { f.dispatcher = d }
}

func WithLogger(l *logrus.Logger) Option {
	return func(f *Fetcher) { f.log = l.WithField("component", "directions") }
}

func NewFetcher(cfg Config, opts ...Option) (*Fetcher, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = defaultAcceptLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	headers := http.Header{}
	for name, value := range map[string]string{
		"device-token":    cfg.DeviceToken,
		"accept-language": cfg.AcceptLanguage,
		"client-name":     cfg.ClientName,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}
		headers.Set(name, value)
	}
	headers.Set("Accept", "application/json")

	f := &Fetcher{
		url:     cfg.URL,
		headers: headers,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        httpMaxIdleConns,
				MaxIdleConnsPerHost: httpMaxIdleConns,
				IdleConnTimeout:     httpIdleConnTimeout,
			},
		},
		dispatcher: DispatcherFunc(func(fn func()) { fn() }),
		log:        logrus.StandardLogger().WithField("component", "directions"),
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// RequestRoute validates req, starts the request in the background and returns
// its request ID. The handler is invoked exactly once, through the dispatcher.
// There is no way to cancel a request once issued.
func (f *Fetcher) RequestRoute(req RouteRequest, handle ResultHandler) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	requestID := uuid.NewString()

	go func() {
		result := f.fetch(context.Background(), requestID, req)
		f.dispatcher.Post(func() { handle(result) })
	}()
	return requestID, nil
}

// Fetch performs one request synchronously. Validation failures are reported
// as a transport error since nothing was sent.
func (f *Fetcher) Fetch(ctx context.Context, req RouteRequest) Result {
	requestID := uuid.NewString()
	if err := req.Validate(); err != nil {
		return Result{RequestID: requestID, Kind: KindTransportError, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	return f.fetch(ctx, requestID, req)
}

func (f *Fetcher) fetch(ctx context.Context, requestID string, req RouteRequest) Result {
	log := f.log.WithField("request_id", requestID)

	body, err := f.do(ctx, req)
	if err != nil {
		log.WithField("kind", KindTransportError).Errorf("Unable to get directions: %s", err.Error())
		return Result{RequestID: requestID, Kind: KindTransportError, Err: err}
	}

	points, kind, err := extractPoints(body)
	if err != nil {
		log.WithField("kind", kind).Errorf("Unable to decode directions: %s", err.Error())
		return Result{RequestID: requestID, Kind: kind, Err: err}
	}

	log.WithField("points", len(points)).Debug("Directions received")
	return Result{RequestID: requestID, Kind: KindSuccess, Points: points}
}

func (f *Fetcher) do(ctx context.Context, req RouteRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+"?"+req.query().Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	for name, values := range f.headers {
		httpReq.Header[name] = values
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	return body, nil
}

type directionsPayload struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	OverviewPolyline *overviewPolyline `json:"overview_polyline"`
}

type overviewPolyline struct {
	Points *string `json:"points"`
}

// extractPoints reads routes[0].overview_polyline.points from a directions body.
func extractPoints(body []byte) (string, Kind, error) {
	if !json.Valid(body) {
		return "", KindParseError, fmt.Errorf("%w: body is not valid JSON", ErrParse)
	}

	var payload directionsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", KindMalformedPayload, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if len(payload.Routes) == 0 {
		return "", KindMalformedPayload, malformed("no routes", payload)
	}
	route := payload.Routes[0]
	if route.OverviewPolyline == nil {
		return "", KindMalformedPayload, malformed("routes[0] has no overview_polyline", payload)
	}
	if route.OverviewPolyline.Points == nil {
		return "", KindMalformedPayload, malformed("overview_polyline has no points", payload)
	}
	return *route.OverviewPolyline.Points, KindSuccess, nil
}

func malformed(reason string, payload directionsPayload) error {
	if payload.Status == "" {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, reason)
	}
	if payload.ErrorMessage != "" {
		return fmt.Errorf("%w: %s (status %s: %s)", ErrMalformedPayload, reason, payload.Status, payload.ErrorMessage)
	}
	return fmt.Errorf("%w: %s (status %s)", ErrMalformedPayload, reason, payload.Status)
}
