// Command genfixture generates a synthetic flood mask GeoTIFF and a matching
// roads GeoJSON fixture for offline runs and end-to-end tests. The mask holds
// a meandering river band plus a flood pool, and the roads cross both flooded
// and dry cells so every overlay branch gets exercised. Both outputs are
// WGS84 and fully deterministic.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -mask-out data/fixtures/flood_mask.tif \
//	  -roads-out data/fixtures/roads.geojson \
//	  -width 64 -height 64
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/geotiff"
	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

const fixtureEPSG = 4326

// roadDef describes one synthetic way. Vertices are fractional pixel
// coordinates, converted through the mask transform so the lines land on
// the grid regardless of origin and size.
type roadDef struct {
	id       string
	class    string
	name     string
	vertices [][2]float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	maskOut := flag.String("mask-out", "data/fixtures/flood_mask.tif", "output path for the flood mask GeoTIFF")
	roadsOut := flag.String("roads-out", "data/fixtures/roads.geojson", "output path for the roads GeoJSON fixture")
	width := flag.Int("width", 64, "mask width in pixels")
	height := flag.Int("height", 64, "mask height in pixels")
	originLon := flag.Float64("origin-lon", -2.28, "longitude of the top-left corner")
	originLat := flag.Float64("origin-lat", 51.90, "latitude of the top-left corner")
	res := flag.Float64("res", 0.0001, "pixel size in degrees")
	flag.Parse()

	if *width < 16 || *height < 16 {
		flag.Usage()
		return fmt.Errorf("-width and -height must be at least 16")
	}
	if *res <= 0 {
		flag.Usage()
		return fmt.Errorf("-res must be positive")
	}

	transform := domain.Affine{*originLon, *res, 0, *originLat, 0, -*res}

	grid, flooded := buildGrid(*width, *height)
	if err := geotiff.CreateMask(*maskOut, *width, *height, grid, transform, fixtureEPSG); err != nil {
		return fmt.Errorf("writing mask fixture: %w", err)
	}
	total := *width * *height
	log.Printf("wrote mask fixture: %s (%dx%d px, %d flooded, %.1f%%)",
		*maskOut, *width, *height, flooded, 100*float64(flooded)/float64(total))

	fc := buildRoads(*width, *height, transform)
	if err := writeJSON(*roadsOut, fc); err != nil {
		return fmt.Errorf("writing roads fixture: %w", err)
	}
	log.Printf("wrote roads fixture: %s (%d features)", *roadsOut, len(fc.Features))

	printStats(*width, *height, transform, fc)
	return nil
}

// buildGrid floods a sinusoidal river band across the full width plus a
// circular pool in the upper-left quadrant. Returns the grid and the
// flooded-cell count.
func buildGrid(width, height int) ([]uint8, int) {
	grid := make([]uint8, width*height)

	flood := func(col, row int) {
		if col >= 0 && col < width && row >= 0 && row < height && grid[row*width+col] == 0 {
			grid[row*width+col] = 1
		}
	}

	// River: a band five cells tall meandering around mid-height.
	amp := float64(height) / 8
	for c := 0; c < width; c++ {
		center := height/2 + int(math.Round(amp*math.Sin(3*math.Pi*float64(c)/float64(width))))
		for r := center - 2; r <= center+2; r++ {
			flood(c, r)
		}
	}

	// Pool: a circle centered in the upper-left quadrant.
	cx, cy := width/4, height/4
	radius := min(width, height) / 8
	for r := cy - radius; r <= cy+radius; r++ {
		for c := cx - radius; c <= cx+radius; c++ {
			dc, dr := c-cx, r-cy
			if dc*dc+dr*dr <= radius*radius {
				flood(c, r)
			}
		}
	}

	flooded := 0
	for _, v := range grid {
		if v == 1 {
			flooded++
		}
	}
	return grid, flooded
}

// buildRoads lays four ways over the grid: a motorway and a primary road
// crossing the river, a secondary road running diagonally, and a footway
// that the default ROAD_FILTER drops.
func buildRoads(width, height int, transform domain.Affine) *geojson.FeatureCollection {
	w, h := float64(width), float64(height)

	defs := []roadDef{
		{
			id: "way/1001", class: "motorway", name: "M5",
			vertices: [][2]float64{{-2, 0.35 * h}, {0.3 * w, 0.38 * h}, {0.7 * w, 0.33 * h}, {w + 2, 0.36 * h}},
		},
		{
			id: "way/1002", class: "primary", name: "A38",
			vertices: [][2]float64{{0.6 * w, -2}, {0.58 * w, 0.4 * h}, {0.62 * w, 0.8 * h}, {0.6 * w, h + 2}},
		},
		{
			id: "way/1003", class: "secondary", name: "B4213",
			vertices: [][2]float64{{0, 0}, {0.5 * w, 0.55 * h}, {w, h}},
		},
		{
			id: "way/1004", class: "footway", name: "Severn Way",
			vertices: [][2]float64{{0.15 * w, 0.25 * h}, {0.35 * w, 0.25 * h}},
		},
	}

	fc := geojson.NewFeatureCollection()
	for _, d := range defs {
		line := make(orb.LineString, len(d.vertices))
		for i, v := range d.vertices {
			x, y := transform.Apply(v[0], v[1])
			line[i] = orb.Point{x, y}
		}
		f := geojson.NewFeature(line)
		f.ID = d.id
		f.Properties = geojson.Properties{"highway": d.class, "name": d.name}
		fc.Append(f)
	}
	return fc
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(width, height int, transform domain.Affine, fc *geojson.FeatureCollection) {
	minX, minY := transform.Apply(0, float64(height))
	maxX, maxY := transform.Apply(float64(width), 0)

	fmt.Println("\n=== Fixture summary ===")
	fmt.Printf("Extent: lon %.4f..%.4f, lat %.4f..%.4f (EPSG:%d)\n", minX, maxX, minY, maxY, fixtureEPSG)
	fmt.Printf("Pixel: %.4f deg\n", transform.ResX())
	for _, f := range fc.Features {
		fmt.Printf("  %v: %s (%s), %d vertices\n",
			f.ID, f.Properties["name"], f.Properties["highway"], len(f.Geometry.(orb.LineString)))
	}
}
