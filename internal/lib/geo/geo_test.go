package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointToPoint(t *testing.T) {
	// Highway 4: Angels Camp to Murphys
	angelscamp := Point{Latitude: 38.0675, Longitude: -120.5436}
	murphys := Point{Latitude: 38.1391, Longitude: -120.4561}

	distance, err := PointToPoint(angelscamp, murphys)
	require.NoError(t, err)
	assert.InDelta(t, 11046, distance, 100, "Distance should be approximately 11.0km")

	distance, err = PointToPoint(angelscamp, angelscamp)
	require.NoError(t, err)
	assert.Equal(t, 0.0, distance)

	_, err = PointToPoint(angelscamp, Point{Latitude: 200, Longitude: -300})
	assert.Error(t, err, "Should return error for invalid coordinates")
}

func TestToLngLat(t *testing.T) {
	out := ToLngLat([][2]float64{{38.5, -120.2}, {40.7, -120.95}})
	assert.Equal(t, []LngLat{{-120.2, 38.5}, {-120.95, 40.7}}, out)
	assert.Equal(t, -120.2, out[0].Lng())
	assert.Equal(t, 38.5, out[0].Lat())

	empty := ToLngLat(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLngLat_MarshalsAsPair(t *testing.T) {
	data, err := json.Marshal([]LngLat{{-120.2, 38.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[-120.2, 38.5]]`, string(data))
}

func TestPathLength(t *testing.T) {
	path := []LngLat{{-120.5436, 38.0675}, {-120.4561, 38.1391}}
	assert.InDelta(t, 11046, PathLength(path), 100)
	assert.Equal(t, 0.0, PathLength(path[:1]))
	assert.Equal(t, 0.0, PathLength(nil))
}

func TestStop_UnmarshalJSON(t *testing.T) {
	var stops []Stop
	err := json.Unmarshal([]byte(`[
		{"stop_lat": "-1.28333", "stop_lng": "36.81667"},
		{"stop_lat": -1.2921, "stop_lng": 36.8219},
		{"stop_lat": " 0.5 ", "stop_lng": "-0"}
	]`), &stops)
	require.NoError(t, err)
	require.Len(t, stops, 3)

	assert.Equal(t, NewStop(-1.28333, 36.81667), stops[0])
	assert.Equal(t, NewStop(-1.2921, 36.8219), stops[1])
	assert.Equal(t, 0.5, float64(stops[2].Lat))
}

func TestStop_UnmarshalJSON_Invalid(t *testing.T) {
	for _, input := range []string{
		`{"stop_lat": "north", "stop_lng": 1}`,
		`{"stop_lat": null, "stop_lng": 1}`,
		`{"stop_lat": true, "stop_lng": 1}`,
		`{"stop_lat": 38.5}`,
		`{"stop_lng": -126.453}`,
		`{}`,
		`[38.5, -120.2]`,
	} {
		var stop Stop
		assert.Error(t, json.Unmarshal([]byte(input), &stop), input)
	}
}

func TestStop_UnmarshalJSON_MissingCoordinate(t *testing.T) {
	var stops []Stop
	err := json.Unmarshal([]byte(`[{"stop_lat": 38.5}, {"stop_lng": -126.453}]`), &stops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_lng is required")
}

func TestStop_Validate(t *testing.T) {
	assert.NoError(t, NewStop(38.5, -120.2).Validate())
	assert.NoError(t, NewStop(-90, 180).Validate())
	assert.Error(t, NewStop(90.1, 0).Validate())
	assert.Error(t, NewStop(0, -180.5).Validate())
	assert.Error(t, NewStop(math.NaN(), 0).Validate())
}
