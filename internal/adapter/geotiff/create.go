package geotiff

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lukeroth/gdal"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// CreateMask writes grid as a single-band byte GeoTIFF georeferenced by
// transform and epsg. Fixture generation and tests use it to produce masks
// the loader accepts.
func CreateMask(path string, width, height int, grid []uint8, transform domain.Affine, epsg int) error {
	if len(grid) != width*height {
		return &domain.IOError{Path: path, Err: fmt.Errorf("grid has %d cells, want %d", len(grid), width*height)}
	}

	sr := gdal.CreateSpatialReference("")
	defer sr.Destroy()
	if err := sr.FromEPSG(epsg); err != nil {
		return &domain.IOError{Path: path, Err: fmt.Errorf("EPSG:%d: %w", epsg, err)}
	}
	wkt, err := sr.ToWKT()
	if err != nil {
		return &domain.IOError{Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}

	driver, err := gdal.GetDriverByName("GTiff")
	if err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	ds := driver.Create(path, width, height, 1, gdal.Byte, nil)
	defer ds.Close()

	if err := ds.SetGeoTransform([6]float64(transform)); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := ds.SetProjection(wkt); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := ds.RasterBand(1).IO(gdal.Write, 0, 0, width, height, grid, width, height, 0, 0); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	return nil
}
