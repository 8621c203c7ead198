// Command fetchreadings archives one day of Environment Agency measurement
// readings as a CSV file under DATA_DIR. The day defaults to today and can
// be pinned with FLOOD_DATE.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/flood-impact-etl/internal/adapter/floodapi"
	"github.com/couchcryptid/flood-impact-etl/internal/config"
	"github.com/couchcryptid/flood-impact-etl/internal/domain"
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
		logger.Error("fetch readings failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	client := floodapi.NewClient(cfg.FloodAPIURL, cfg.FetchTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	date := cfg.FloodDate
	if date == "" {
		date = domain.Now().Format("2006-01-02")
	}

	path := filepath.Join(cfg.DataDir, "readings_"+date+".csv")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Stream to a temp file and rename, so an aborted download never leaves
	// a truncated archive behind.
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	n, err := client.DayReadings(ctx, date, f)
	if err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	logger.Info("wrote readings", "path", path, "date", date, "bytes", n)
	return nil
}
