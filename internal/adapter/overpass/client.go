// Package overpass fetches OSM road geometry from an Overpass API endpoint.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// wgs84 is the CRS of all Overpass geometry.
var wgs84 = domain.CRS{EPSG: 4326, Geographic: true}

// Client is the live road source: it queries an Overpass API endpoint for
// highway ways inside a bounding box.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an Overpass client. The timeout bounds the whole
// request and is also passed to the Overpass server as its query budget.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchRoads returns the road network inside aoi (EPSG:4326, lon/lat order)
// whose highway class is in classes. Zero matching ways yield an empty
// network, not an error; any transport or service failure is a
// *domain.FetchError and is not retried.
func (c *Client) FetchRoads(ctx context.Context, aoi orb.Bound, classes []string) (domain.RoadNetwork, error) {
	query := c.buildQuery(aoi, classes)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.RoadNetwork{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RoadNetwork{}, &domain.FetchError{Source: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.RoadNetwork{}, &domain.FetchError{
			Source: c.endpoint,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var overpassResp response
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return domain.RoadNetwork{}, &domain.FetchError{Source: c.endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}

	segments := make([]domain.RoadSegment, 0, len(overpassResp.Elements))
	for _, el := range overpassResp.Elements {
		if el.Type != "way" {
			continue
		}
		line := make(orb.LineString, len(el.Geometry))
		for i, p := range el.Geometry {
			line[i] = orb.Point{p.Lon, p.Lat}
		}
		segments = append(segments, domain.RoadSegment{
			ID:    fmt.Sprintf("way/%d", el.ID),
			Class: el.Tags["highway"],
			Line:  line,
		})
	}

	network := domain.NewRoadNetwork(wgs84, segments)
	c.logger.Debug("fetched roads",
		"endpoint", c.endpoint,
		"segments", len(network.Segments),
		"bbox", fmt.Sprintf("%v,%v,%v,%v", aoi.Min[1], aoi.Min[0], aoi.Max[1], aoi.Max[0]))
	return network, nil
}

// buildQuery renders the Overpass QL query: all ways whose highway tag
// matches one of the accepted classes exactly, with full geometry, inside
// the bbox in Overpass (south,west,north,east) order.
func (c *Client) buildQuery(aoi orb.Bound, classes []string) string {
	budget := int(c.httpClient.Timeout.Seconds())
	if budget < 1 {
		budget = 30
	}
	return fmt.Sprintf(
		"[out:json][timeout:%d];\nway[\"highway\"~\"^(%s)$\"](%v,%v,%v,%v);\nout geom;",
		budget,
		strings.Join(classes, "|"),
		aoi.Min[1], aoi.Min[0], aoi.Max[1], aoi.Max[0],
	)
}

// Overpass API response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []latLon          `json:"geometry"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
