package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	prefaberrors "github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"google.golang.org/grpc/codes"

	"github.com/dpup/roadpath/server/internal/cache"
	"github.com/dpup/roadpath/server/internal/clients/osrm"
	"github.com/dpup/roadpath/server/internal/config"
	"github.com/dpup/roadpath/server/internal/lib/geo"
	"github.com/dpup/roadpath/server/internal/lib/polyline"
)

// minStops is the smallest stop sequence that describes a route.
const minStops = 2

// RouteFetcher requests an encoded route through an ordered stop sequence.
// *osrm.Client satisfies it.
type RouteFetcher interface {
	Route(ctx context.Context, stops []geo.Stop) (*osrm.RouteData, error)
}

// InvalidStopError reports a stop outside the valid coordinate range.
type InvalidStopError struct {
	Index int
	Err   error
}

func (e *InvalidStopError) Error() string {
	return fmt.Sprintf("stop %d: %v", e.Index, e.Err)
}

func (e *InvalidStopError) Unwrap() error { return e.Err }

// Result is the outcome of one resolution. Path is never nil; it is empty
// when Err is set or when fewer than two stops were supplied.
type Result struct {
	Path            []geo.LngLat
	DistanceMeters  float64
	DurationSeconds float64
	Cached          bool
	Err             error
}

// OK reports whether the resolution succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Code classifies the failure reason.
func (r Result) Code() codes.Code { return failureCode(r.Err) }

func failed(err error) Result {
	return Result{Path: []geo.LngLat{}, Err: err}
}

// RoadPathService resolves stop sequences into road-following paths.
// It holds no per-call state; concurrent calls are independent.
type RoadPathService struct {
	fetcher   RouteFetcher
	precision float64
	cache     *cache.Cache
	cacheTTL  time.Duration
}

// Option configures a RoadPathService.
type Option func(*RoadPathService)

// WithCache caches successful resolutions for the configured cache_ttl.
func WithCache(c *cache.Cache) Option {
	return func(s *RoadPathService) { s.cache = c }
}

// NewRoadPathService creates a new RoadPathService
func NewRoadPathService(fetcher RouteFetcher, cfg *config.RoutingConfig, opts ...Option) *RoadPathService {
	s := &RoadPathService{
		fetcher:   fetcher,
		precision: cfg.Precision(),
		cacheTTL:  cfg.CacheTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetRoadPath returns the road path through stops in [lng, lat] order, or an
// empty path when there is nothing to resolve or resolution fails.
func (s *RoadPathService) GetRoadPath(ctx context.Context, stops []geo.Stop) []geo.LngLat {
	return s.Resolve(ctx, stops).Path
}

// Resolve requests a route through stops, decodes the first route's geometry
// and swaps each point into [lng, lat] order. Failures are logged and
// reported in the Result, never returned as panics.
func (s *RoadPathService) Resolve(ctx context.Context, stops []geo.Stop) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorw(ctx, "Road path: recovered from panic",
				"error", r, "error.stack_trace", panicStack())
			result = failed(fmt.Errorf("panic during resolution: %v", r))
		}
	}()

	if len(stops) < minStops {
		return Result{Path: []geo.LngLat{}}
	}

	for i, stop := range stops {
		if err := stop.Validate(); err != nil {
			return s.logFailure(ctx, stops, &InvalidStopError{Index: i, Err: err})
		}
	}

	if s.cacheEnabled() {
		cached, found, err := s.cache.GetRoadPath(stops)
		if err != nil {
			logging.Warnw(ctx, "Road path: cache read failed", "error", err)
		} else if found {
			return Result{
				Path:            cached.Path,
				DistanceMeters:  cached.DistanceMeters,
				DurationSeconds: cached.DurationSeconds,
				Cached:          true,
			}
		}
	}

	route, err := s.fetcher.Route(ctx, stops)
	if err != nil {
		return s.logFailure(ctx, stops, err)
	}

	points, err := polyline.DecodeWithPrecision(route.Geometry, s.precision)
	if err != nil {
		return s.logFailure(ctx, stops, fmt.Errorf("failed to decode route geometry: %w", err))
	}

	result = Result{
		Path:            geo.ToLngLat(points),
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	}

	if s.cacheEnabled() {
		entry := cache.CachedRoadPath{
			Path:            result.Path,
			DistanceMeters:  result.DistanceMeters,
			DurationSeconds: result.DurationSeconds,
		}
		if err := s.cache.SetRoadPath(stops, entry, s.cacheTTL); err != nil {
			logging.Warnw(ctx, "Road path: cache write failed", "error", err)
		}
	}

	return result
}

// panicStack returns a trimmed stack trace for the panicking goroutine.
func panicStack() any {
	err, parseErr := prefaberrors.ParseStack(debug.Stack())
	if parseErr != nil || err == nil {
		return nil
	}
	skipFrames := 3
	numFrames := 5
	return err.MinimalStack(skipFrames, numFrames)
}

func (s *RoadPathService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func (s *RoadPathService) logFailure(ctx context.Context, stops []geo.Stop, err error) Result {
	result := failed(err)
	logging.Warnw(ctx, "Road path: resolution failed, returning empty path",
		"error", err, "code", result.Code().String(), "stops", len(stops))
	return result
}

// failureCode maps resolution errors onto gRPC status codes.
func failureCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var invalidStop *InvalidStopError
	var networkErr *osrm.NetworkError
	var serviceErr *osrm.ServiceError
	var malformed *polyline.MalformedGeometryError

	switch {
	case errors.As(err, &invalidStop):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.As(err, &networkErr):
		return codes.Unavailable
	case errors.As(err, &serviceErr):
		if serviceErr.Malformed {
			return codes.Unavailable
		}
		if serviceErr.StatusCode >= http.StatusOK && serviceErr.StatusCode < http.StatusMultipleChoices {
			// The service answered but had no usable route.
			return codes.NotFound
		}
		return codes.Unavailable
	case errors.As(err, &malformed):
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
