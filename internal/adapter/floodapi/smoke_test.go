//go:build smoke

package floodapi

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags smoke ./internal/adapter/floodapi/...
// Hits the live Environment Agency API; results depend on current weather.

func TestSmokeCurrentWarnings(t *testing.T) {
	client := NewClient("https://environment.data.gov.uk/flood-monitoring", 30*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	warnings, err := client.CurrentWarnings(ctx, "")
	require.NoError(t, err)
	for _, w := range warnings {
		assert.NotEmpty(t, w.FloodAreaID)
		assert.GreaterOrEqual(t, w.SeverityLevel, 1)
		assert.LessOrEqual(t, w.SeverityLevel, 4)
	}
}

func TestSmokeDayReadings(t *testing.T) {
	client := NewClient("https://environment.data.gov.uk/flood-monitoring", 30*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var buf bytes.Buffer
	n, err := client.DayReadings(ctx, time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"), &buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.True(t, strings.HasPrefix(buf.String(), "dateTime,"))
}
