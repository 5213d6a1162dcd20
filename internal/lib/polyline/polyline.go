// Package polyline implements Google's Encoded Polyline Algorithm Format.
//
// Coordinates are (latitude, longitude) pairs. Each value is scaled by a
// precision factor, delta-encoded against the previous value of the same
// axis, zigzag folded and written as 5-bit groups offset by 63.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultPrecision is the scale used by Google and by OSRM's "polyline" geometry.
	DefaultPrecision = 1e5

	// Precision6 is the scale used by OSRM's "polyline6" geometry.
	Precision6 = 1e6

	charOffset      = 63
	continuationBit = 0x20
	chunkMask       = 0x1f

	// maxShift is the last shift at which a group still fits a 64-bit value.
	// Only the low 4 bits of a group at that shift are usable.
	maxShift     = 60
	maxLastChunk = 0x0f
)

var errInvalidPrecision = errors.New("polyline: precision must be a positive finite number")

// MalformedGeometryError reports an encoded string that violates the format.
type MalformedGeometryError struct {
	Offset int
	Reason string
}

func (e *MalformedGeometryError) Error() string {
	return fmt.Sprintf("malformed polyline at offset %d: %s", e.Offset, e.Reason)
}

// Decode decodes an encoded polyline at DefaultPrecision.
func Decode(encoded string) ([][2]float64, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes an encoded polyline into (lat, lng) pairs.
// An empty string yields an empty, non-nil slice. A point outside the valid
// coordinate range is reported as malformed.
func DecodeWithPrecision(encoded string, precision float64) ([][2]float64, error) {
	if !(precision > 0) || math.IsInf(precision, 1) {
		return nil, errInvalidPrecision
	}

	points := make([][2]float64, 0, len(encoded)/4)
	var lat, lng int64

	for i := 0; i < len(encoded); {
		dlat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		if next == len(encoded) {
			return nil, &MalformedGeometryError{Offset: i, Reason: "dangling latitude without longitude"}
		}

		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}

		lat += dlat
		lng += dlng
		point := [2]float64{float64(lat) / precision, float64(lng) / precision}
		if math.Abs(point[0]) > 90 || math.Abs(point[1]) > 180 {
			return nil, &MalformedGeometryError{Offset: i, Reason: fmt.Sprintf("coordinate (%v, %v) out of range", point[0], point[1])}
		}
		points = append(points, point)
		i = next
	}

	return points, nil
}

// decodeValue reads one zigzag folded value starting at start and returns it
// along with the offset of the next unread byte.
func decodeValue(encoded string, start int) (int64, int, error) {
	var result uint64
	var shift uint

	for i := start; i < len(encoded); i++ {
		b := int(encoded[i]) - charOffset
		if b < 0 || b > 63 {
			return 0, 0, &MalformedGeometryError{Offset: i, Reason: fmt.Sprintf("invalid character %q", encoded[i])}
		}
		if shift > maxShift || (shift == maxShift && b&chunkMask > maxLastChunk) {
			return 0, 0, &MalformedGeometryError{Offset: i, Reason: "value overflows 64 bits"}
		}

		result |= uint64(b&chunkMask) << shift
		shift += 5

		if b&continuationBit == 0 {
			return unfold(result), i + 1, nil
		}
	}

	return 0, 0, &MalformedGeometryError{Offset: len(encoded), Reason: "unterminated value"}
}

func unfold(v uint64) int64 {
	if v&1 != 0 {
		return ^int64(v >> 1)
	}
	return int64(v >> 1)
}

// Encode encodes (lat, lng) pairs at DefaultPrecision.
func Encode(points [][2]float64) string {
	return EncodeWithPrecision(points, DefaultPrecision)
}

// EncodeWithPrecision encodes (lat, lng) pairs. Values are rounded to the
// nearest multiple of 1/precision.
func EncodeWithPrecision(points [][2]float64, precision float64) string {
	var sb strings.Builder
	sb.Grow(len(points) * 8)

	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p[0] * precision))
		lng := int64(math.Round(p[1] * precision))

		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return sb.String()
}

func encodeValue(sb *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}

	for u >= continuationBit {
		sb.WriteByte(byte(continuationBit|(u&chunkMask)) + charOffset)
		u >>= 5
	}
	sb.WriteByte(byte(u) + charOffset)
}
