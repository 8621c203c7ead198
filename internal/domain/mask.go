package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Affine is a six-parameter transform in GDAL GeoTransform order, mapping
// pixel indices to CRS coordinates. See the package documentation for the
// forward equations.
type Affine [6]float64

// Apply maps fractional pixel coordinates to CRS coordinates. Integer
// (col, row) address the top-left corner of a pixel; add 0.5 to each for
// the pixel center.
func (t Affine) Apply(col, row float64) (x, y float64) {
	x = t[0] + col*t[1] + row*t[2]
	y = t[3] + col*t[4] + row*t[5]
	return x, y
}

// Inverse maps CRS coordinates to fractional pixel coordinates.
func (t Affine) Inverse(x, y float64) (col, row float64) {
	d := t.det()
	dx := x - t[0]
	dy := y - t[3]
	return (t[5]*dx - t[2]*dy) / d, (t[1]*dy - t[4]*dx) / d
}

// Locate maps CRS coordinates to pixel indices via the inverse transform
// with floor rounding, so a point exactly on a pixel boundary belongs to
// the pixel that starts there and never to two. The result may lie outside
// the grid; callers bounds-check.
func (t Affine) Locate(x, y float64) (col, row int) {
	fc, fr := t.Inverse(x, y)
	return int(math.Floor(fc)), int(math.Floor(fr))
}

// ResX returns the absolute x-axis pixel resolution in CRS units.
func (t Affine) ResX() float64 { return math.Abs(t[1]) }

// ResY returns the absolute y-axis pixel resolution in CRS units.
func (t Affine) ResY() float64 { return math.Abs(t[5]) }

func (t Affine) det() float64 { return t[1]*t[5] - t[2]*t[4] }

// CRS identifies a coordinate reference system by EPSG code and records
// whether its units are angular (geographic) or linear meters (projected).
type CRS struct {
	EPSG       int
	Geographic bool
}

func (c CRS) String() string { return fmt.Sprintf("EPSG:%d", c.EPSG) }

// FloodMask is an immutable binary flood grid with its georeferencing.
// Construct with NewFloodMask, which validates content; all methods are
// read-only and safe for reuse across runs.
type FloodMask struct {
	width, height int
	grid          []uint8 // row-major, len == width*height
	transform     Affine
	crs           CRS
	flooded       int
}

// NewFloodMask validates and copies a row-major grid whose cells must all
// be 0 or 1 (nodata is mapped to 0 before this point, by the loader).
func NewFloodMask(width, height int, grid []uint8, transform Affine, crs CRS) (*FloodMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid size %dx%d is not positive", width, height)
	}
	if len(grid) != width*height {
		return nil, fmt.Errorf("grid has %d cells, want %d", len(grid), width*height)
	}
	if transform.det() == 0 {
		return nil, errors.New("affine transform is not invertible")
	}
	if transform.ResX() == 0 || transform.ResY() == 0 {
		return nil, errors.New("pixel resolution is zero")
	}

	data := make([]uint8, len(grid))
	flooded := 0
	for i, v := range grid {
		if v > 1 {
			return nil, fmt.Errorf("cell %d has value %d, want 0 or 1", i, v)
		}
		data[i] = v
		if v == 1 {
			flooded++
		}
	}

	return &FloodMask{
		width:     width,
		height:    height,
		grid:      data,
		transform: transform,
		crs:       crs,
		flooded:   flooded,
	}, nil
}

// Width returns the grid width in pixels.
func (m *FloodMask) Width() int { return m.width }

// Height returns the grid height in pixels.
func (m *FloodMask) Height() int { return m.height }

// Transform returns the pixel-to-CRS affine transform.
func (m *FloodMask) Transform() Affine { return m.transform }

// CRS returns the mask's coordinate reference system.
func (m *FloodMask) CRS() CRS { return m.crs }

// FloodedPixels returns the number of cells equal to 1.
func (m *FloodMask) FloodedPixels() int { return m.flooded }

// Contains reports whether (col, row) lies inside the grid.
func (m *FloodMask) Contains(col, row int) bool {
	return col >= 0 && col < m.width && row >= 0 && row < m.height
}

// FloodedAt reports whether the cell at (col, row) is flooded. Indices
// outside the grid are not flooded.
func (m *FloodMask) FloodedAt(col, row int) bool {
	if !m.Contains(col, row) {
		return false
	}
	return m.grid[row*m.width+col] == 1
}

// Bound returns the mask extent in CRS coordinates, covering all four
// corners so rotated transforms are handled.
func (m *FloodMask) Bound() orb.Bound {
	w, h := float64(m.width), float64(m.height)
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for _, corner := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := m.transform.Apply(corner[0], corner[1])
		b = b.Extend(orb.Point{x, y})
	}
	return b
}

// AOI returns the mask extent padded by buffer, in the raster's CRS units.
func (m *FloodMask) AOI(buffer float64) orb.Bound {
	return m.Bound().Pad(buffer)
}

// Centroid returns the center of the mask extent in CRS coordinates.
func (m *FloodMask) Centroid() orb.Point {
	return m.Bound().Center()
}

// PixelSizeMeters returns the ground size of one pixel. Projected rasters
// use the resolution directly; geographic rasters measure the geodesic span
// of one pixel at the extent centroid.
func (m *FloodMask) PixelSizeMeters() (w, h float64) {
	if !m.crs.Geographic {
		return m.transform.ResX(), m.transform.ResY()
	}
	c := m.Centroid()
	w = geo.Distance(c, orb.Point{c[0] + m.transform.ResX(), c[1]})
	h = geo.Distance(c, orb.Point{c[0], c[1] + m.transform.ResY()})
	return w, h
}

// FloodCentroid returns the mean position of flooded cells in pixel
// indices. ok is false when nothing is flooded.
func (m *FloodMask) FloodCentroid() (col, row int, ok bool) {
	if m.flooded == 0 {
		return 0, 0, false
	}
	var sumCol, sumRow int
	for r := 0; r < m.height; r++ {
		for c := 0; c < m.width; c++ {
			if m.grid[r*m.width+c] == 1 {
				sumCol += c
				sumRow += r
			}
		}
	}
	return sumCol / m.flooded, sumRow / m.flooded, true
}

// Window returns a copy restricted to ±half pixels around the given center,
// clamped to the grid, with the transform origin shifted to match. half <= 0
// or a window covering the whole grid returns the mask unchanged.
func (m *FloodMask) Window(centerCol, centerRow, half int) *FloodMask {
	if half <= 0 {
		return m
	}
	col0 := max(0, centerCol-half)
	row0 := max(0, centerRow-half)
	col1 := min(m.width, centerCol+half)
	row1 := min(m.height, centerRow+half)
	if col0 >= col1 || row0 >= row1 {
		return m
	}
	if col0 == 0 && row0 == 0 && col1 == m.width && row1 == m.height {
		return m
	}

	w, h := col1-col0, row1-row0
	grid := make([]uint8, w*h)
	flooded := 0
	for r := 0; r < h; r++ {
		copy(grid[r*w:(r+1)*w], m.grid[(row0+r)*m.width+col0:(row0+r)*m.width+col1])
	}
	for _, v := range grid {
		if v == 1 {
			flooded++
		}
	}

	t := m.transform
	t[0], t[3] = m.transform.Apply(float64(col0), float64(row0))

	return &FloodMask{
		width:     w,
		height:    h,
		grid:      grid,
		transform: t,
		crs:       m.crs,
		flooded:   flooded,
	}
}
