package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dpup/roadpath/server/internal/lib/polyline"
)

// Geometry encodings understood by the routing service
const (
	GeometryPolyline  = "polyline"
	GeometryPolyline6 = "polyline6"
)

// Config represents the complete server configuration
type Config struct {
	Routing RoutingConfig `koanf:"routing"`
}

// RoutingConfig holds settings for the external routing service
type RoutingConfig struct {
	// BaseURL is the route endpoint including the profile, e.g.
	// https://router.project-osrm.org/route/v1/driving
	BaseURL string `koanf:"base_url"`

	// Geometries selects the encoded geometry precision requested from the service.
	Geometries string `koanf:"geometries"`

	// Timeout bounds a single routing request. Zero disables the client timeout.
	Timeout time.Duration `koanf:"timeout"`

	// CacheTTL enables caching of resolved paths when positive.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CleanupInterval controls how often expired cache entries are removed.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Routing: RoutingConfig{
			BaseURL:         "https://router.project-osrm.org/route/v1/driving",
			Geometries:      GeometryPolyline,
			Timeout:         10 * time.Second,
			CacheTTL:        0,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// Precision returns the polyline precision factor matching Geometries
func (c RoutingConfig) Precision() float64 {
	if c.Geometries == GeometryPolyline6 {
		return polyline.Precision6
	}
	return polyline.DefaultPrecision
}

// Validate checks the routing settings
func (c RoutingConfig) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "routing.base_url", Message: "required but not set"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "routing.base_url", Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", c.BaseURL)}
	}

	switch c.Geometries {
	case GeometryPolyline, GeometryPolyline6:
	default:
		return &ConfigError{Field: "routing.geometries", Message: fmt.Sprintf("must be %q or %q, got %q", GeometryPolyline, GeometryPolyline6, c.Geometries)}
	}

	if c.Timeout < 0 {
		return &ConfigError{Field: "routing.timeout", Message: "must not be negative"}
	}
	if c.CacheTTL < 0 {
		return &ConfigError{Field: "routing.cache_ttl", Message: "must not be negative"}
	}
	if c.CacheTTL > 0 && c.CleanupInterval <= 0 {
		return &ConfigError{Field: "routing.cleanup_interval", Message: "must be positive when caching is enabled"}
	}
	return nil
}
