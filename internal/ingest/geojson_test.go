package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/placeresolve/internal/place"
)

const takeoutGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [2.2945, 48.8584]},
      "properties": {
        "name": "Eiffel Tower",
        "google_maps_url": "https://maps.example/?cid=123",
        "location": {"address": "Champ de Mars, Paris"}
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [0, 0]},
      "properties": {
        "name": "Lost Cafe",
        "google_maps_url": "https://maps.example/?cid=456"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [0, 0]},
      "properties": {}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]},
      "properties": {"name": "A walk"}
    }
  ]
}`

func TestReadGeoJSON(t *testing.T) {
	t.Parallel()

	records, err := ReadGeoJSON(strings.NewReader(takeoutGeoJSON))
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Real coordinates pass through untouched.
	r := records[0]
	assert.Equal(t, "Eiffel Tower", r.Name)
	assert.Equal(t, "https://maps.example/?cid=123", r.Locator)
	require.NotNil(t, r.Coords)
	assert.Equal(t, place.Coordinates{Lat: 48.8584, Lon: 2.2945}, *r.Coords)
	assert.False(t, r.NeedsLookup())
	assert.Contains(t, r.Props, "location", "foreign properties preserved")

	// Null island with a URL means coordinates are missing.
	r = records[1]
	assert.Nil(t, r.Coords)
	assert.Equal(t, place.StatusUnresolved, r.Status)
	assert.True(t, r.NeedsLookup())

	// Null island with nothing to search for passes through as-is.
	r = records[2]
	require.NotNil(t, r.Coords)
	assert.True(t, r.Coords.IsNullIsland())
	assert.False(t, r.NeedsLookup())

	// Non-point geometry passes through verbatim.
	r = records[3]
	assert.Nil(t, r.Coords)
	require.NotNil(t, r.Geometry)
	_, isLine := r.Geometry.(*geom.LineString)
	assert.True(t, isLine)
	assert.False(t, r.NeedsLookup())
}

func TestReadGeoJSON_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ReadGeoJSON(strings.NewReader("{not geojson"))
	require.Error(t, err)
}

func TestReadGeoJSON_IndexesFollowInputOrder(t *testing.T) {
	t.Parallel()

	records, err := ReadGeoJSON(strings.NewReader(takeoutGeoJSON))
	require.NoError(t, err)
	for i, r := range records {
		assert.Equal(t, i, r.Index)
	}
}
