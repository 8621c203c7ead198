package fixture

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

const roadsFixture = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "id": "way/1",
		 "properties": {"highway": "primary", "name": "Inside Road"},
		 "geometry": {"type": "LineString", "coordinates": [[-2.100, 51.400], [-2.099, 51.401]]}},
		{"type": "Feature", "id": "way/1",
		 "properties": {"highway": "primary", "name": "Duplicate"},
		 "geometry": {"type": "LineString", "coordinates": [[-2.100, 51.400], [-2.098, 51.402]]}},
		{"type": "Feature", "id": "way/2",
		 "properties": {"highway": "footway"},
		 "geometry": {"type": "LineString", "coordinates": [[-2.100, 51.400], [-2.099, 51.401]]}},
		{"type": "Feature", "id": "way/3",
		 "properties": {"highway": "primary", "name": "Far Away"},
		 "geometry": {"type": "LineString", "coordinates": [[10.0, 40.0], [10.1, 40.1]]}},
		{"type": "Feature",
		 "properties": {"@id": "way/4", "highway": "secondary"},
		 "geometry": {"type": "LineString", "coordinates": [[-2.101, 51.399], [-2.100, 51.400]]}},
		{"type": "Feature", "id": "way/5",
		 "properties": {"highway": "primary"},
		 "geometry": {"type": "Point", "coordinates": [-2.1, 51.4]}}
	]
}`

var testAOI = orb.Bound{Min: orb.Point{-2.105, 51.395}, Max: orb.Point{-2.095, 51.405}}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roads.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testSource(path string) *RoadSource {
	return NewRoadSource(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRoadSource_FetchRoads(t *testing.T) {
	src := testSource(writeFixture(t, roadsFixture))

	network, err := src.FetchRoads(context.Background(), testAOI, []string{"primary", "secondary"})
	require.NoError(t, err)

	require.Len(t, network.Segments, 2)
	assert.Equal(t, domain.CRS{EPSG: 4326, Geographic: true}, network.CRS)

	assert.Equal(t, "way/1", network.Segments[0].ID)
	assert.Equal(t, "primary", network.Segments[0].Class)
	assert.Equal(t, orb.Point{-2.099, 51.401}, network.Segments[0].Line[1],
		"first occurrence of a duplicate ID wins")

	assert.Equal(t, "way/4", network.Segments[1].ID, "@id property is used when the feature has no id")
	assert.Equal(t, "secondary", network.Segments[1].Class)
}

func TestRoadSource_FetchRoads_OutsideAOIExcluded(t *testing.T) {
	src := testSource(writeFixture(t, roadsFixture))

	network, err := src.FetchRoads(context.Background(), testAOI, []string{"primary", "secondary"})
	require.NoError(t, err)

	for _, s := range network.Segments {
		assert.NotEqual(t, "way/3", s.ID, "segment entirely outside the AOI contributes nothing")
	}
}

func TestRoadSource_FetchRoads_NoMatches(t *testing.T) {
	src := testSource(writeFixture(t, roadsFixture))

	network, err := src.FetchRoads(context.Background(), testAOI, []string{"residential"})
	require.NoError(t, err, "zero matching features is not an error")
	assert.True(t, network.Empty())
}

func TestRoadSource_FetchRoads_MissingFile(t *testing.T) {
	src := testSource(filepath.Join(t.TempDir(), "nope.geojson"))

	_, err := src.FetchRoads(context.Background(), testAOI, []string{"primary"})

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Source, "nope.geojson")
}

func TestRoadSource_FetchRoads_MalformedFile(t *testing.T) {
	src := testSource(writeFixture(t, "{not geojson"))

	_, err := src.FetchRoads(context.Background(), testAOI, []string{"primary"})

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
}

func TestRoadSource_FetchRoads_CancelledContext(t *testing.T) {
	src := testSource(writeFixture(t, roadsFixture))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.FetchRoads(ctx, testAOI, []string{"primary"})

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
}
