// Command preview renders a flood mask and its road network to a PNG for
// visual inspection. Flooded cells, dry cells, and roads each get a fixed
// color; road spans crossing flooded cells are highlighted.
//
// Usage:
//
//	go run ./cmd/preview \
//	  -mask data/processed/flood_mask.tif \
//	  -roads data/fixtures/roads.geojson \
//	  -out data/processed/preview.png \
//	  -zoom 4
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/fixture"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/geotiff"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/projection"
	"github.com/couchcryptid/flood-impact-etl/internal/domain"
	"github.com/couchcryptid/flood-impact-etl/internal/preview"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	maskPath := flag.String("mask", "", "path to the flood mask GeoTIFF")
	roadsPath := flag.String("roads", "", "path to a roads GeoJSON fixture (optional)")
	outPath := flag.String("out", "preview.png", "output PNG path")
	zoom := flag.Int("zoom", 4, "output pixels per mask cell")
	classes := flag.String("classes", "motorway,trunk,primary,secondary", "comma-separated highway classes to draw")
	flag.Parse()

	if *maskPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -mask")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	mask, err := geotiff.NewLoader(logger).Load(ctx, *maskPath)
	if err != nil {
		return err
	}
	log.Printf("mask: %dx%d px, %d flooded, %s", mask.Width(), mask.Height(), mask.FloodedPixels(), mask.CRS())

	reprojector := projection.NewReprojector(logger)

	var roads domain.RoadNetwork
	if *roadsPath != "" {
		aoi, err := domain.ReprojectBound(reprojector, mask.Bound(), mask.CRS().EPSG, 4326)
		if err != nil {
			return err
		}
		roads, err = fixture.NewRoadSource(*roadsPath, logger).FetchRoads(ctx, aoi, splitList(*classes))
		if err != nil {
			return err
		}
		log.Printf("roads: %d segments", len(roads.Segments))
	}

	renderer := preview.NewRenderer(nil, *zoom, reprojector, logger)
	if err := renderer.Save(*outPath, mask, roads); err != nil {
		return err
	}
	log.Printf("wrote preview: %s", *outPath)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
