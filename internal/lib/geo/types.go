package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// LngLat is a coordinate in map-renderer order: [longitude, latitude].
type LngLat [2]float64

// Lng returns the longitude component.
func (p LngLat) Lng() float64 { return p[0] }

// Lat returns the latitude component.
func (p LngLat) Lat() float64 { return p[1] }

// Degrees is a decimal-degree value that accepts both JSON numbers and
// JSON strings holding a decimal ("38.5"), since stop records arrive in
// either form.
type Degrees float64

// UnmarshalJSON implements json.Unmarshaler.
func (d *Degrees) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("coordinate is null")
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid coordinate string: %w", err)
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", raw, err)
	}
	*d = Degrees(v)
	return nil
}

// Stop is a caller-supplied waypoint in GTFS-style stop_lat/stop_lng form.
type Stop struct {
	Lat Degrees `json:"stop_lat"`
	Lng Degrees `json:"stop_lng"`
}

// UnmarshalJSON implements json.Unmarshaler. Both coordinates are required.
func (s *Stop) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat *Degrees `json:"stop_lat"`
		Lng *Degrees `json:"stop_lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Lat == nil {
		return fmt.Errorf("stop_lat is required")
	}
	if raw.Lng == nil {
		return fmt.Errorf("stop_lng is required")
	}
	s.Lat, s.Lng = *raw.Lat, *raw.Lng
	return nil
}

// NewStop creates a Stop from latitude and longitude values
func NewStop(lat, lng float64) Stop {
	return Stop{Lat: Degrees(lat), Lng: Degrees(lng)}
}

// Point converts the stop to a Point
func (s Stop) Point() Point {
	return Point{Latitude: float64(s.Lat), Longitude: float64(s.Lng)}
}

// Validate checks the stop lies within the valid coordinate range
func (s Stop) Validate() error {
	lat, lng := float64(s.Lat), float64(s.Lng)
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("invalid coordinates: not a number")
	}
	if !isValidCoordinate(s.Point()) {
		return fmt.Errorf("invalid coordinates (%v, %v): latitude must be [-90, 90], longitude must be [-180, 180]", lat, lng)
	}
	return nil
}
