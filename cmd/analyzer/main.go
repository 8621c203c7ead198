package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/fixture"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/geotiff"
	kafkaadapter "github.com/couchcryptid/flood-impact-etl/internal/adapter/kafka"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/overpass"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/projection"
	"github.com/couchcryptid/flood-impact-etl/internal/adapter/report"
	"github.com/couchcryptid/flood-impact-etl/internal/config"
	"github.com/couchcryptid/flood-impact-etl/internal/observability"
	"github.com/couchcryptid/flood-impact-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	masks := geotiff.NewLoader(logger)
	reprojector := projection.NewReprojector(logger)

	// Road source selection (fixture overrides Overpass via ROADS_FIXTURE_PATH).
	var roads pipeline.RoadProvider
	if cfg.RoadsFixturePath != "" {
		roads = fixture.NewRoadSource(cfg.RoadsFixturePath, logger)
		logger.Info("using road fixture", "path", cfg.RoadsFixturePath)
	} else {
		roads = overpass.NewClient(cfg.OverpassURL, cfg.FetchTimeout, logger)
		logger.Info("using overpass road source", "url", cfg.OverpassURL, "timeout", cfg.FetchTimeout)
	}

	sinks := []pipeline.ResultSink{report.NewWriter(cfg.OutputPath, logger)}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(masks, roads, sinks, reprojector, cfg, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	if _, err := p.Run(ctx); err != nil {
		return err
	}

	// A terminating batch job has no scrape target; push once at the end.
	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, "flood_impact_analyzer"); err != nil {
			logger.Error("metrics push error", "url", cfg.PushgatewayURL, "error", err)
		}
	}
	return nil
}
