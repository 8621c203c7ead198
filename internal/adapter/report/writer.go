// Package report persists analysis results as JSON documents on disk.
package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// Writer persists an AnalysisResult with the exact field names downstream
// consumers rely on. Writes are atomic: the document is encoded to a
// uniquely named temp file in the destination directory, then renamed into
// place, so a crash never leaves a partial result behind.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a file sink writing to path. Parent directories are
// created on first write.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Write persists the result. All failures are *domain.IOError.
func (w *Writer) Write(ctx context.Context, res domain.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}

	doc := record{
		NFloodedPixels: res.FloodedPixels,
		// Rounded here, at the write boundary only; upstream keeps full precision.
		AreaFloodedM2:      math.Round(res.FloodedAreaM2*100) / 100,
		TotalRoadLengthM:   res.TotalRoadLengthM,
		FloodedRoadLengthM: res.FloodedRoadLengthM,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(w.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return &domain.IOError{Path: w.path, Err: err}
	}

	w.logger.Debug("wrote analysis result", "path", w.path, "run_id", res.RunID)
	return nil
}

// record is the persisted document. The JSON keys are a stable contract.
type record struct {
	NFloodedPixels     int     `json:"n_flooded_pixels"`
	AreaFloodedM2      float64 `json:"area_flooded_m2"`
	TotalRoadLengthM   float64 `json:"total_road_length_m"`
	FloodedRoadLengthM float64 `json:"flooded_road_length_m"`
}
