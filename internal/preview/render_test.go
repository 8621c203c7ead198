package preview

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

var utm30 = domain.CRS{EPSG: 32630, Geographic: false}

// 4x4 grid, 10 m pixels, origin (0, 100): left half flooded.
func testMask(t *testing.T) *domain.FloodMask {
	t.Helper()
	grid := []uint8{
		1, 1, 0, 0,
		1, 1, 0, 0,
		1, 1, 0, 0,
		1, 1, 0, 0,
	}
	mask, err := domain.NewFloodMask(4, 4, grid, domain.Affine{0, 10, 0, 100, 0, -10}, utm30)
	require.NoError(t, err)
	return mask
}

func testRenderer(zoom int) *Renderer {
	return NewRenderer(nil, zoom, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestImageMaskCells(t *testing.T) {
	img, err := testRenderer(8).Image(testMask(t), domain.RoadNetwork{CRS: utm30})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.Equal(t, colornames.Steelblue, rgbaAt(img, 4, 4), "flooded cell")
	assert.Equal(t, colornames.White, rgbaAt(img, 28, 4), "dry cell")
}

func TestImageRoadColouring(t *testing.T) {
	mask := testMask(t)
	// Horizontal road through the second pixel row, fully crossing the grid.
	roads := domain.RoadNetwork{CRS: utm30, Segments: []domain.RoadSegment{
		{ID: "way/1", Class: "primary", Line: orb.LineString{{0, 85}, {40, 85}}},
	}}

	img, err := testRenderer(8).Image(mask, roads)
	require.NoError(t, err)

	// Row 1 centre line is grid y=85 -> image y=12. Flooded half is drawn
	// crimson, dry half keeps the base road colour.
	assert.Equal(t, colornames.Crimson, rgbaAt(img, 8, 12))
	assert.Equal(t, colornames.Dimgray, rgbaAt(img, 24, 12))
}

func TestImageCRSMismatchWithoutReprojector(t *testing.T) {
	roads := domain.RoadNetwork{CRS: domain.CRS{EPSG: 4326, Geographic: true}}

	_, err := testRenderer(1).Image(testMask(t), roads)
	var projErr *domain.ProjectionError
	require.ErrorAs(t, err, &projErr)
}

func TestSaveWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previews", "run.png")

	err := testRenderer(2).Save(path, testMask(t), domain.RoadNetwork{CRS: utm30})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestNewRendererClampsZoom(t *testing.T) {
	r := testRenderer(0)
	assert.Equal(t, 1, r.zoom)
}
