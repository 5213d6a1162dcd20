package polyline

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gopolyline "github.com/twpayne/go-polyline"
)

// Published example from Google's polyline documentation
const canonicalPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var canonicalPoints = [][2]float64{
	{38.5, -120.2},
	{40.7, -120.95},
	{43.252, -126.453},
}

func TestDecode_KnownVector(t *testing.T) {
	points, err := Decode(canonicalPolyline)
	require.NoError(t, err)
	assert.Equal(t, canonicalPoints, points)
}

func TestEncode_KnownVector(t *testing.T) {
	assert.Equal(t, canonicalPolyline, Encode(canonicalPoints))
}

func TestDecode_Empty(t *testing.T) {
	points, err := Decode("")
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		reason  string
		atIndex int
	}{
		{
			name:    "truncated final group",
			input:   strings.TrimSuffix(canonicalPolyline, "@"),
			reason:  "unterminated value",
			atIndex: len(canonicalPolyline) - 1,
		},
		{
			name:    "latitude without longitude",
			input:   "_p~iF",
			reason:  "dangling latitude",
			atIndex: 0,
		},
		{
			name:    "character below offset",
			input:   "_p~iF ps|U",
			reason:  "invalid character",
			atIndex: 5,
		},
		{
			name:    "endless continuation",
			input:   strings.Repeat("~", 20),
			reason:  "overflows",
			atIndex: 13,
		},
		{
			name:    "final group past 64 bits",
			input:   strings.Repeat("~", 12) + "^" + "?",
			reason:  "overflows",
			atIndex: 12,
		},
		{
			name:    "latitude out of range",
			input:   Encode([][2]float64{{38.5, -120.2}}) + Encode([][2]float64{{52.5, 0}}),
			reason:  "out of range",
			atIndex: len(Encode([][2]float64{{38.5, -120.2}})),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := Decode(tc.input)
			require.Error(t, err)
			assert.Nil(t, points)

			var malformed *MalformedGeometryError
			require.ErrorAs(t, err, &malformed)
			assert.Contains(t, malformed.Reason, tc.reason)
			assert.Equal(t, tc.atIndex, malformed.Offset)
		})
	}
}

func TestDecode_LargestTerminalGroup(t *testing.T) {
	// A 13th group at the 4-bit limit still fits, but decodes to an
	// out-of-range coordinate.
	_, err := Decode(strings.Repeat("~", 12) + "N" + "?")
	var malformed *MalformedGeometryError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "out of range")
}

func TestDecodeWithPrecision_InvalidPrecision(t *testing.T) {
	for _, precision := range []float64{0, -1e5, math.NaN(), math.Inf(1)} {
		_, err := DecodeWithPrecision(canonicalPolyline, precision)
		assert.Error(t, err, "precision %v should be rejected", precision)
	}
}

func TestDecodeWithPrecision_Polyline6(t *testing.T) {
	points := [][2]float64{
		{-33.868820, 151.209296},
		{-33.856784, 151.215297},
		{-33.852222, 151.210556},
	}

	decoded, err := DecodeWithPrecision(EncodeWithPrecision(points, Precision6), Precision6)
	require.NoError(t, err)
	require.Len(t, decoded, len(points))
	for i := range points {
		assert.InDelta(t, points[i][0], decoded[i][0], 1e-6)
		assert.InDelta(t, points[i][1], decoded[i][1], 1e-6)
	}
}

// Cross-checks against an independent implementation of the format.
func TestRoundTrip_AgainstReferenceEncoder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(40)
		coords := make([][]float64, n)
		for i := range coords {
			lat := math.Round((rng.Float64()*180-90)*1e5) / 1e5
			lng := math.Round((rng.Float64()*360-180)*1e5) / 1e5
			coords[i] = []float64{lat, lng}
		}

		decoded, err := Decode(string(gopolyline.EncodeCoords(coords)))
		require.NoError(t, err)
		require.Len(t, decoded, n)
		for i := range coords {
			assert.InDelta(t, coords[i][0], decoded[i][0], 1e-5)
			assert.InDelta(t, coords[i][1], decoded[i][1], 1e-5)
		}

		pairs := make([][2]float64, n)
		for i, c := range coords {
			pairs[i] = [2]float64{c[0], c[1]}
		}
		reference, _, err := gopolyline.DecodeCoords([]byte(Encode(pairs)))
		require.NoError(t, err)
		require.Len(t, reference, n)
		for i := range coords {
			assert.InDelta(t, coords[i][0], reference[i][0], 1e-5)
			assert.InDelta(t, coords[i][1], reference[i][1], 1e-5)
		}
	}
}

func TestEncode_RepeatedPointIsZeroDelta(t *testing.T) {
	encoded := Encode([][2]float64{{38.5, -120.2}, {38.5, -120.2}})
	assert.Equal(t, "_p~iF~ps|U??", encoded)

	points, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{38.5, -120.2}, {38.5, -120.2}}, points)
}
