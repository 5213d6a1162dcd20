package geo

import (
	"errors"
	"math"
)

// Earth's radius in meters
const earthRadius = 6371000

// ToLngLat swaps decoded (lat, lng) pairs into renderer order. The result
// has the same length and order as the input and is never nil.
func ToLngLat(points [][2]float64) []LngLat {
	out := make([]LngLat, len(points))
	for i, p := range points {
		out[i] = LngLat{p[1], p[0]}
	}
	return out
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c, nil
}

// PathLength sums the great-circle length of a path in meters.
// Segments with invalid coordinates are skipped.
func PathLength(path []LngLat) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		d, err := PointToPoint(
			Point{Latitude: path[i-1].Lat(), Longitude: path[i-1].Lng()},
			Point{Latitude: path[i].Lat(), Longitude: path[i].Lng()},
		)
		if err != nil {
			continue
		}
		total += d
	}
	return total
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
