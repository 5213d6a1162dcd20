package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/roadpath/server/internal/config"
	"github.com/dpup/roadpath/server/internal/lib/geo"
)

const (
	// maxErrorBody caps how much of a failed response is kept in a ServiceError.
	maxErrorBody = 512

	// maxResponseBody caps how much of any response is read.
	maxResponseBody = 16 << 20

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second
)

// HTTPDoer is the HTTP capability the client depends on
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to an OSRM compatible route service
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	geometries string
	timeout    time.Duration
}

// RouteData represents the first route returned by the service
type RouteData struct {
	Geometry        string
	DistanceMeters  float64
	DurationSeconds float64
}

// NetworkError wraps a transport level failure (DNS, timeout, connection reset)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("route request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError reports a response the client could not use. Malformed is set
// when the body could not be read as a route response at all.
type ServiceError struct {
	StatusCode int
	Message    string
	Malformed  bool
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("route service error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("route service error: %s", e.Message)
}

// NewClient creates a client from routing configuration
func NewClient(cfg config.RoutingConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConns,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	return NewClientWithHTTPDoer(cfg.BaseURL, cfg.Geometries, cfg.Timeout, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	})
}

// NewClientWithHTTPDoer creates a client that issues requests through doer
func NewClientWithHTTPDoer(baseURL, geometries string, timeout time.Duration, doer HTTPDoer) *Client {
	if geometries == "" {
		geometries = config.GeometryPolyline
	}
	return &Client{
		httpClient: doer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geometries: geometries,
		timeout:    timeout,
	}
}

// BuildURL returns the route request URL for stops. Coordinates are written
// as lng,lat pairs separated by semicolons, without rounding.
func (c *Client) BuildURL(stops []geo.Stop) string {
	pairs := make([]string, len(stops))
	for i, s := range stops {
		pairs[i] = formatDegrees(s.Lng) + "," + formatDegrees(s.Lat)
	}
	return fmt.Sprintf("%s/%s?overview=full&geometries=%s", c.baseURL, strings.Join(pairs, ";"), c.geometries)
}

func formatDegrees(d geo.Degrees) string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

// Route requests a road-following route through stops and returns the first
// route. Exactly one HTTP request is made per call.
func (c *Client) Route(ctx context.Context, stops []geo.Stop) (*RouteData, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(stops), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(body) > maxResponseBody {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response exceeds %d bytes", maxResponseBody),
			Malformed:  true,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: truncate(string(body))}
	}

	var response routeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err), Malformed: true}
	}

	if response.Code != "" && response.Code != "Ok" {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s: %s", response.Code, response.Message)}
	}

	if len(response.Routes) == 0 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: "no routes found in response"}
	}

	route := response.Routes[0]
	if route.Geometry == "" {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: "first route has no geometry"}
	}

	return &RouteData{
		Geometry:        route.Geometry,
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	}, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// routeResponse represents the route service response structure
type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

// route represents a single route in the response
type route struct {
	Geometry string  `json:"geometry"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}
