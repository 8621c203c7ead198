// Command verify checks a persisted flood analysis report for integrity: it
// validates the document's internal consistency, recomputes the analysis
// from the same mask and road fixture through the real pipeline, and
// compares every metric field. A report that drifts from its inputs fails
// the run.
//
// Usage:
//
//	go run ./cmd/verify \
//	  -report data/processed/flood_analysis.json \
//	  -mask data/fixtures/flood_mask.tif \
//	  -roads data/fixtures/roads.geojson
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/fixture"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/geotiff"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/projection"
	"github.com/couchcryptid/flood-impact-etl/internal/config"
	"github.com/couchcryptid/flood-impact-etl/internal/domain"
	"github.com/couchcryptid/flood-impact-etl/internal/observability"
	"github.com/couchcryptid/flood-impact-etl/internal/pipeline"
)

// reportDoc mirrors the persisted analysis document.
type reportDoc struct {
	NFloodedPixels     int     `json:"n_flooded_pixels"`
	AreaFloodedM2      float64 `json:"area_flooded_m2"`
	TotalRoadLengthM   float64 `json:"total_road_length_m"`
	FloodedRoadLengthM float64 `json:"flooded_road_length_m"`
}

var requiredKeys = []string{
	"n_flooded_pixels",
	"area_flooded_m2",
	"total_road_length_m",
	"flooded_road_length_m",
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// verifyOpts carries the overlay parameters of the run being verified. They
// must match the analyzer's configuration or recomputation will diverge.
type verifyOpts struct {
	buffer     float64
	step       float64
	classes    []string
	halfWindow int
}

func main() {
	reportPath := flag.String("report", "", "path to the analysis JSON report")
	maskPath := flag.String("mask", "", "path to the flood mask GeoTIFF the report was computed from")
	roadsPath := flag.String("roads", "", "path to the roads GeoJSON fixture the report was computed from")
	buffer := flag.Float64("buffer", 0.005, "AOI buffer in degrees used by the run")
	step := flag.Float64("step", 10, "densify step in meters used by the run")
	classes := flag.String("classes", "motorway,trunk,primary,secondary", "comma-separated highway classes used by the run")
	halfWindow := flag.Int("half-window", 500, "half window in pixels used by the run (0 disables)")
	flag.Parse()

	if *reportPath == "" || *maskPath == "" || *roadsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := verifyOpts{
		buffer:     *buffer,
		step:       *step,
		classes:    splitList(*classes),
		halfWindow: *halfWindow,
	}
	if code := run(*reportPath, *maskPath, *roadsPath, opts); code != 0 {
		os.Exit(code)
	}
}

func run(reportPath, maskPath, roadsPath string, opts verifyOpts) int {
	fmt.Println("=== Flood Analysis Report Verification ===")
	fmt.Println()

	doc, keys, err := loadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
		return 1
	}

	recomputed, err := recompute(maskPath, roadsPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: recompute analysis: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDocument(doc, keys),
		validateParity(doc, recomputed),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Report: %d flooded px, %.2f m2 flooded, %.1f m roads, %.1f m flooded roads\n",
		doc.NFloodedPixels, doc.AreaFloodedM2, doc.TotalRoadLengthM, doc.FloodedRoadLengthM)
	fmt.Printf("Recomputed: %d flooded px, %.2f m2 flooded, %.1f m roads, %.1f m flooded roads\n",
		recomputed.FloodedPixels, recomputed.FloodedAreaM2, recomputed.TotalRoadLengthM, recomputed.FloodedRoadLengthM)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nReport verified.")
		return 0
	}
	fmt.Println("\nVerification FAILED.")
	return 1
}

// ── Data loading ──

// loadReport parses the report twice: into the typed document and into a
// generic map so missing keys are detectable (the typed decode would leave
// them at zero).
func loadReport(path string) (reportDoc, map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reportDoc{}, nil, err
	}
	var doc reportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return reportDoc{}, nil, err
	}
	var keys map[string]any
	if err := json.Unmarshal(data, &keys); err != nil {
		return reportDoc{}, nil, err
	}
	return doc, keys, nil
}

// captureSink grabs the pipeline's result instead of persisting it.
type captureSink struct {
	res domain.AnalysisResult
}

func (s *captureSink) Write(_ context.Context, res domain.AnalysisResult) error {
	s.res = res
	return nil
}

// recompute runs the real pipeline over the report's inputs so the
// comparison exercises the same windowing, AOI, and overlay code paths as
// the original run.
func recompute(maskPath, roadsPath string, opts verifyOpts) (domain.AnalysisResult, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		MaskPath:      maskPath,
		BufferDegrees: opts.buffer,
		DensifyStepM:  opts.step,
		RoadFilter:    opts.classes,
		HalfWindowPx:  opts.halfWindow,
	}

	sink := &captureSink{}
	p := pipeline.New(
		geotiff.NewLoader(logger),
		fixture.NewRoadSource(roadsPath, logger),
		[]pipeline.ResultSink{sink},
		projection.NewReprojector(logger),
		cfg,
		logger,
		observability.NewMetrics(),
	)

	if _, err := p.Run(context.Background()); err != nil {
		return domain.AnalysisResult{}, err
	}
	return sink.res, nil
}

// ── Phase 1: Document Integrity ──
// Validates the report standalone: required keys, value ranges.

func validateDocument(doc reportDoc, keys map[string]any) *phase {
	p := &phase{name: "Phase 1: Document Integrity"}

	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			p.errorf("missing key %q", k)
		}
	}

	if doc.NFloodedPixels < 0 {
		p.errorf("n_flooded_pixels %d is negative", doc.NFloodedPixels)
	}
	if doc.AreaFloodedM2 < 0 {
		p.errorf("area_flooded_m2 %g is negative", doc.AreaFloodedM2)
	}
	if doc.TotalRoadLengthM < 0 {
		p.errorf("total_road_length_m %g is negative", doc.TotalRoadLengthM)
	}
	if doc.FloodedRoadLengthM < 0 {
		p.errorf("flooded_road_length_m %g is negative", doc.FloodedRoadLengthM)
	}
	if doc.FloodedRoadLengthM > doc.TotalRoadLengthM+1e-6 {
		p.errorf("flooded_road_length_m %g exceeds total_road_length_m %g",
			doc.FloodedRoadLengthM, doc.TotalRoadLengthM)
	}
	if doc.NFloodedPixels == 0 && doc.AreaFloodedM2 != 0 {
		p.errorf("area_flooded_m2 %g with zero flooded pixels", doc.AreaFloodedM2)
	}

	return p
}

// ── Phase 2: Recomputation Parity ──
// Compares the report against a fresh run over the same inputs. The overlay
// is deterministic, so everything but the rounded area must match exactly.

func validateParity(doc reportDoc, res domain.AnalysisResult) *phase {
	p := &phase{name: "Phase 2: Recomputation Parity"}

	if doc.NFloodedPixels != res.FloodedPixels {
		p.errorf("n_flooded_pixels: report=%d, recomputed=%d", doc.NFloodedPixels, res.FloodedPixels)
	}

	// The writer rounds area to centimeters; apply the same rounding.
	wantArea := math.Round(res.FloodedAreaM2*100) / 100
	if !floatEq(doc.AreaFloodedM2, wantArea) {
		p.errorf("area_flooded_m2: report=%g, recomputed=%g", doc.AreaFloodedM2, wantArea)
	}
	if !floatEq(doc.TotalRoadLengthM, res.TotalRoadLengthM) {
		p.errorf("total_road_length_m: report=%g, recomputed=%g", doc.TotalRoadLengthM, res.TotalRoadLengthM)
	}
	if !floatEq(doc.FloodedRoadLengthM, res.FloodedRoadLengthM) {
		p.errorf("flooded_road_length_m: report=%g, recomputed=%g", doc.FloodedRoadLengthM, res.FloodedRoadLengthM)
	}

	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
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
