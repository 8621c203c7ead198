// Package fixture provides local-file variants of the external data
// sources, for offline runs and deterministic tests.
package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

var wgs84 = domain.CRS{EPSG: 4326, Geographic: true}

// RoadSource reads roads from a GeoJSON FeatureCollection on disk. It
// honors the same contract as the live Overpass client: clipped to the AOI,
// filtered by highway class, deduplicated by ID, empty result is not an
// error.
type RoadSource struct {
	path   string
	logger *slog.Logger
}

// NewRoadSource creates a file-backed road source.
func NewRoadSource(path string, logger *slog.Logger) *RoadSource {
	return &RoadSource{path: path, logger: logger}
}

// FetchRoads loads the fixture and returns LineString features whose
// highway class is in classes and whose bound intersects aoi (EPSG:4326).
func (s *RoadSource) FetchRoads(ctx context.Context, aoi orb.Bound, classes []string) (domain.RoadNetwork, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoadNetwork{}, &domain.FetchError{Source: s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.RoadNetwork{}, &domain.FetchError{Source: s.path, Err: err}
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return domain.RoadNetwork{}, &domain.FetchError{Source: s.path, Err: fmt.Errorf("decode feature collection: %w", err)}
	}

	allowed := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		allowed[c] = struct{}{}
	}

	var segments []domain.RoadSegment
	for i, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok {
			s.logger.Debug("skipping non-linestring feature", "index", i)
			continue
		}
		class, _ := f.Properties["highway"].(string)
		if _, ok := allowed[class]; !ok {
			continue
		}
		if !line.Bound().Intersects(aoi) {
			continue
		}
		segments = append(segments, domain.RoadSegment{
			ID:    featureID(f, i),
			Class: class,
			Line:  line,
		})
	}

	network := domain.NewRoadNetwork(wgs84, segments)
	s.logger.Debug("loaded road fixture", "path", s.path, "segments", len(network.Segments))
	return network, nil
}

// featureID picks a stable identifier: the feature id when present, then an
// OSM-style @id property, then the feature's position in the file.
func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		return fmt.Sprintf("%v", f.ID)
	}
	if id, ok := f.Properties["@id"].(string); ok && id != "" {
		return id
	}
	return fmt.Sprintf("feature/%d", index)
}
