// Package domain models flood-impact analysis over a binary flood raster
// and an OpenStreetMap road network.
//
// # Raster Conventions
//
// The flood mask is a single-band grid whose cells are exactly 0 (dry) or
// 1 (flooded). Any nodata value declared by the source file is mapped to 0
// at load time, before the grid reaches this package. Georeferencing uses
// the six-parameter affine transform in GDAL GeoTransform order:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
//
// where (col, row) index pixels from the top-left corner. t[1] and t[5] are
// the per-axis resolutions (t[5] is negative for north-up rasters); t[2] and
// t[4] are rotation terms, normally zero. The inverse mapping uses the exact
// 2x2 inversion of the linear part, then floor rounding, so a point on a
// pixel boundary always lands in a single deterministic pixel.
//
// # Road Data Conventions
//
// Road segments come from OpenStreetMap ways. The classification tag is the
// OSM "highway" value; the analysis defaults to the classes
// motorway, trunk, primary and secondary. Identifiers follow the
// "way/<osm id>" form for live Overpass data, or the feature id for local
// fixtures. A RoadNetwork is deduplicated by identifier and restricted to
// the buffered raster extent.
//
// # Units and Scale
//
// All areas and lengths are reported in meters. When the raster CRS is
// geographic (angular units), per-axis pixel size is converted to meters by
// measuring the geodesic span of one pixel at the centroid of the raster
// extent; polyline lengths use geodesic distance. When the CRS is projected
// in meters, resolutions and planar lengths are used directly.
//
// # Sampling
//
// Flooded road length is computed by densifying each polyline into
// sub-segments no longer than the configured step (clamped to one pixel's
// ground size), then testing the sub-segment midpoint against the grid.
// Midpoints outside the grid contribute nothing. The result is deterministic
// for identical inputs and configuration; only float summation order can
// move the last decimal, so comparisons belong in tolerances, not equality.
//
// # Degenerate Geometry
//
// A segment with fewer than two vertices, or whose vertices are all
// coincident (zero length), is skipped and reported as a [GeometryError];
// the run continues with reduced road coverage. A closed ring with nonzero
// length (a roundabout) is valid geometry and is processed normally.
package domain
