// Package pipeline orchestrates one flood-impact analysis run: load the
// mask, fetch roads for its area of interest, overlay the two, and persist
// the result.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/flood-impact-etl/internal/config"
	"github.com/couchcryptid/flood-impact-etl/internal/domain"
	"github.com/couchcryptid/flood-impact-etl/internal/observability"
)

const wgs84EPSG = 4326

// MaskSource loads the flood mask for a run.
type MaskSource interface {
	Load(ctx context.Context, path string) (*domain.FloodMask, error)
}

// RoadProvider fetches the road network intersecting an area of interest
// expressed in WGS84 lon/lat.
type RoadProvider interface {
	FetchRoads(ctx context.Context, aoi orb.Bound, classes []string) (domain.RoadNetwork, error)
}

// ResultSink persists one analysis result.
type ResultSink interface {
	Write(ctx context.Context, res domain.AnalysisResult) error
}

// Pipeline wires the run stages together.
type Pipeline struct {
	masks       MaskSource
	roads       RoadProvider
	sinks       []ResultSink
	reprojector domain.Reprojector
	cfg         *config.Config
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(masks MaskSource, roads RoadProvider, sinks []ResultSink, rp domain.Reprojector, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		masks:       masks,
		roads:       roads,
		sinks:       sinks,
		reprojector: rp,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes one analysis. The returned result carries a fresh run ID and
// generation timestamp; a failing stage aborts the run with its typed error.
func (p *Pipeline) Run(ctx context.Context) (domain.AnalysisResult, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("analysis run started", "mask", p.cfg.MaskPath)

	mask, err := p.loadMask(ctx, logger)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	network, err := p.fetchRoads(ctx, logger, mask)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	start := time.Now()
	res, err := domain.Analyze(mask, network, domain.OverlayConfig{
		DensifyStepM: p.cfg.DensifyStepM,
		Reprojector:  p.reprojector,
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	p.metrics.StageDuration.WithLabelValues("overlay").Observe(time.Since(start).Seconds())

	res.RunID = runID
	res.GeneratedAt = domain.Now()

	for _, skip := range res.Skipped {
		logger.Warn("skipped degenerate segment", "segment", skip.SegmentID, "reason", skip.Reason)
	}
	p.metrics.SegmentsSkipped.Add(float64(len(res.Skipped)))
	p.metrics.FloodedPixels.Set(float64(res.FloodedPixels))
	p.metrics.FloodedAreaM2.Set(res.FloodedAreaM2)
	p.metrics.TotalRoadLengthM.Set(res.TotalRoadLengthM)
	p.metrics.FloodedRoadLengthM.Set(res.FloodedRoadLengthM)

	if err := p.persist(ctx, res); err != nil {
		return domain.AnalysisResult{}, err
	}
	p.metrics.LastRunTimestamp.Set(float64(domain.Now().Unix()))

	logger.Info("analysis run complete",
		"flooded_pixels", res.FloodedPixels,
		"area_flooded_m2", res.FloodedAreaM2,
		"total_road_length_m", res.TotalRoadLengthM,
		"flooded_road_length_m", res.FloodedRoadLengthM,
		"skipped_segments", len(res.Skipped),
	)
	return res, nil
}

// loadMask reads the mask and, when configured, restricts it to a window
// around the flood centroid so huge rasters stay tractable.
func (p *Pipeline) loadMask(ctx context.Context, logger *slog.Logger) (*domain.FloodMask, error) {
	start := time.Now()
	mask, err := p.masks.Load(ctx, p.cfg.MaskPath)
	if err != nil {
		return nil, err
	}
	p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())

	if p.cfg.HalfWindowPx > 0 {
		if col, row, ok := mask.FloodCentroid(); ok {
			windowed := mask.Window(col, row, p.cfg.HalfWindowPx)
			if windowed != mask {
				logger.Debug("windowed mask around flood centroid",
					"center_col", col, "center_row", row,
					"width", windowed.Width(), "height", windowed.Height())
			}
			mask = windowed
		}
	}
	return mask, nil
}

// fetchRoads derives the WGS84 area of interest from the mask extent plus
// the configured buffer, then queries the road provider.
func (p *Pipeline) fetchRoads(ctx context.Context, logger *slog.Logger, mask *domain.FloodMask) (domain.RoadNetwork, error) {
	aoi, err := domain.ReprojectBound(p.reprojector, mask.Bound(), mask.CRS().EPSG, wgs84EPSG)
	if err != nil {
		return domain.RoadNetwork{}, err
	}
	aoi = aoi.Pad(p.cfg.BufferDegrees)

	start := time.Now()
	network, err := p.roads.FetchRoads(ctx, aoi, p.cfg.RoadFilter)
	if err != nil {
		return domain.RoadNetwork{}, err
	}
	p.metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())
	p.metrics.RoadsFetched.Add(float64(len(network.Segments)))

	if network.Empty() {
		logger.Warn("no roads in area of interest")
	}
	return network, nil
}

func (p *Pipeline) persist(ctx context.Context, res domain.AnalysisResult) error {
	start := time.Now()
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, res); err != nil {
			return err
		}
		p.metrics.ResultsPublished.Inc()
	}
	p.metrics.StageDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	return nil
}
