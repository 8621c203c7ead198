// Command fetchwarnings snapshots the current Environment Agency flood
// warnings, with their area polygons resolved, to a GeoJSON file under
// DATA_DIR.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/floodapi"
	"github.com/couchcryptid/flood-impact-etl/internal/config"
	"github.com/couchcryptid/flood-impact-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("fetch warnings failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	client := floodapi.NewClient(cfg.FloodAPIURL, cfg.FetchTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	warnings, err := client.CurrentWarnings(ctx, cfg.FloodCounty)
	if err != nil {
		return err
	}

	withArea := 0
	for _, w := range warnings {
		if w.Area != nil {
			withArea++
		}
	}

	data, err := json.MarshalIndent(floodapi.MergeWarnings(warnings), "", "  ")
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(cfg.DataDir, "warnings_current.geojson")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("wrote flood warnings",
		"path", path,
		"county", cfg.FloodCounty,
		"warnings", len(warnings),
		"with_area", withArea,
	)
	return nil
}
