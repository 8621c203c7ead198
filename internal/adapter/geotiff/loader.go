// Package geotiff loads binary flood masks from single-band GeoTIFF rasters
// through GDAL.
package geotiff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lukeroth/gdal"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// Loader reads flood masks from GeoTIFF files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a GeoTIFF mask loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the raster at path into a validated FloodMask. The raster must
// carry exactly one band and an EPSG-identified spatial reference; cells must
// be 0, 1 or the band's nodata value, and nodata reads as dry.
func (l *Loader) Load(ctx context.Context, path string) (*domain.FloodMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.InputError{Path: path, Reason: "load cancelled", Err: err}
	}

	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		return nil, &domain.InputError{Path: path, Reason: "open raster", Err: err}
	}
	defer ds.Close()

	if n := ds.RasterCount(); n != 1 {
		return nil, &domain.InputError{Path: path, Reason: fmt.Sprintf("expected a single band, found %d", n)}
	}

	crs, err := readCRS(ds)
	if err != nil {
		return nil, &domain.InputError{Path: path, Reason: "read spatial reference", Err: err}
	}

	width := ds.RasterXSize()
	height := ds.RasterYSize()
	band := ds.RasterBand(1)

	// Float64 buffer so any band type round-trips losslessly and nodata
	// comparison keeps the original value.
	buf := make([]float64, width*height)
	if err := band.IO(gdal.Read, 0, 0, width, height, buf, width, height, 0, 0); err != nil {
		return nil, &domain.InputError{Path: path, Reason: "read band", Err: err}
	}

	nodata, hasNodata := band.NoDataValue()
	grid := make([]uint8, len(buf))
	for i, v := range buf {
		switch {
		case hasNodata && v == nodata:
			// dry
		case v == 0:
		case v == 1:
			grid[i] = 1
		default:
			return nil, &domain.InputError{Path: path, Reason: fmt.Sprintf("cell %d has value %v, want 0, 1 or nodata", i, v)}
		}
	}

	mask, err := domain.NewFloodMask(width, height, grid, domain.Affine(ds.GeoTransform()), crs)
	if err != nil {
		return nil, &domain.InputError{Path: path, Reason: "invalid mask", Err: err}
	}

	l.logger.Debug("loaded flood mask", "path", path, "width", width, "height", height,
		"crs", crs.String(), "flooded_pixels", mask.FloodedPixels())
	return mask, nil
}

// readCRS extracts the EPSG code and unit kind from the dataset projection.
func readCRS(ds gdal.Dataset) (domain.CRS, error) {
	wkt := ds.Projection()
	if wkt == "" {
		return domain.CRS{}, errors.New("raster has no spatial reference")
	}

	sr := gdal.CreateSpatialReference(wkt)
	defer sr.Destroy()

	rawID, ok := sr.AttrValue("AUTHORITY", 1)
	if !ok {
		if sr.AutoIdentifyEPSG() == nil {
			rawID, ok = sr.AttrValue("AUTHORITY", 1)
		}
	}
	if !ok {
		return domain.CRS{}, errors.New("spatial reference has no EPSG authority")
	}
	epsg, err := strconv.Atoi(rawID)
	if err != nil {
		return domain.CRS{}, fmt.Errorf("authority code %q: %w", rawID, err)
	}

	return domain.CRS{EPSG: epsg, Geographic: sr.IsGeographic()}, nil
}
