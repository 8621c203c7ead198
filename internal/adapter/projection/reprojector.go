// Package projection reprojects road geometry between coordinate reference
// systems through GDAL's OSR bindings.
package projection

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/lukeroth/gdal"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// Reprojector implements domain.Reprojector. Spatial references are cached
// per EPSG code and reused for the life of the process.
type Reprojector struct {
	mu     sync.Mutex
	refs   map[int]gdal.SpatialReference
	logger *slog.Logger
}

// NewReprojector creates a GDAL-backed reprojector.
func NewReprojector(logger *slog.Logger) *Reprojector {
	return &Reprojector{
		refs:   map[int]gdal.SpatialReference{},
		logger: logger,
	}
}

// Reproject converts every vertex of line from one EPSG CRS to another.
// The input line is left untouched.
func (r *Reprojector) Reproject(line orb.LineString, fromEPSG, toEPSG int) (orb.LineString, error) {
	if fromEPSG == toEPSG {
		return line, nil
	}

	src, err := r.ref(fromEPSG)
	if err != nil {
		return nil, &domain.ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Err: err}
	}
	dst, err := r.ref(toEPSG)
	if err != nil {
		return nil, &domain.ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Err: err}
	}

	trans := gdal.CreateCoordinateTransform(src, dst)
	defer trans.Destroy()

	geom := gdal.Create(gdal.GT_LineString)
	defer geom.Destroy()
	for _, pt := range line {
		geom.AddPoint2D(pt[0], pt[1])
	}

	if err := geom.Transform(trans); err != nil {
		return nil, &domain.ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Err: err}
	}

	out := make(orb.LineString, geom.PointCount())
	for i := range out {
		out[i] = orb.Point{geom.X(i), geom.Y(i)}
	}
	return out, nil
}

// ref returns the cached spatial reference for an EPSG code, creating it on
// first use. Axis mapping is pinned to traditional GIS order so coordinates
// stay (lon, lat) regardless of the authority definition.
func (r *Reprojector) ref(epsg int) (gdal.SpatialReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, ok := r.refs[epsg]; ok {
		return ref, nil
	}

	ref := gdal.CreateSpatialReference("")
	if err := ref.FromEPSG(epsg); err != nil {
		ref.Destroy()
		return gdal.SpatialReference{}, fmt.Errorf("EPSG:%d: %w", epsg, err)
	}
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)

	r.refs[epsg] = ref
	r.logger.Debug("cached spatial reference", "epsg", epsg)
	return ref, nil
}
