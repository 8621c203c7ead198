//go:build smoke

package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit a real Overpass API endpoint and are rate-limited upstream.
// Run with: go test -tags=smoke ./internal/adapter/overpass/ -v -count=1

func smokeClient() *Client {
	endpoint := os.Getenv("OVERPASS_URL")
	if endpoint == "" {
		endpoint = "https://overpass-api.de/api/interpreter"
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_FetchRoads_CentralBristol(t *testing.T) {
	c := smokeClient()

	// A small box over central Bristol, which always has primary roads.
	aoi := orb.Bound{Min: orb.Point{-2.60, 51.45}, Max: orb.Point{-2.58, 51.46}}
	network, err := c.FetchRoads(context.Background(), aoi, []string{"primary", "secondary"})
	require.NoError(t, err)

	assert.False(t, network.Empty())
	for _, s := range network.Segments {
		assert.Contains(t, []string{"primary", "secondary"}, s.Class)
		assert.GreaterOrEqual(t, len(s.Line), 2)
	}
}

func TestSmoke_FetchRoads_OpenOcean(t *testing.T) {
	c := smokeClient()

	// A box in the mid-Atlantic: no roads, but also no error.
	aoi := orb.Bound{Min: orb.Point{-40.01, 30.0}, Max: orb.Point{-40.0, 30.01}}
	network, err := c.FetchRoads(context.Background(), aoi, []string{"motorway"})
	require.NoError(t, err)
	assert.True(t, network.Empty())
}
