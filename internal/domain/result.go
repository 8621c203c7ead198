package domain

import "time"

// AnalysisResult is the outcome of one overlay run. The metric fields are
// deterministic for identical inputs and configuration; RunID and
// GeneratedAt are stamped by the pipeline once the run completes.
type AnalysisResult struct {
	RunID       string
	GeneratedAt time.Time

	FloodedPixels      int
	PixelAreaM2        float64
	FloodedAreaM2      float64
	TotalRoadLengthM   float64
	FloodedRoadLengthM float64

	// Skipped records segments dropped for degenerate geometry, excluded
	// from both length totals.
	Skipped []*GeometryError
}
