// Package floodapi queries the Environment Agency flood-monitoring API for
// current flood warnings and raw telemetry readings.
package floodapi

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
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

// Client talks to one flood-monitoring API base URL, such as
// https://environment.data.gov.uk/flood-monitoring.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a flood-monitoring API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Warning is one current flood warning with its resolved area geometry.
// Area is nil when the warning has no polygon or the polygon could not be
// fetched; that is logged, not fatal, matching the listing-first contract.
type Warning struct {
	FloodAreaID         string
	Description         string
	Severity            string
	SeverityLevel       int
	TimeRaised          string
	TimeSeverityChanged string
	Area                orb.Geometry
}

// CurrentWarnings returns the current warnings, optionally filtered by
// county, with each warning's flood-area polygon resolved. Failure to list
// warnings is a *domain.FetchError; failure to resolve one polygon only
// degrades that warning to a nil Area.
func (c *Client) CurrentWarnings(ctx context.Context, county string) ([]Warning, error) {
	u := c.baseURL + "/id/floods"
	if county != "" {
		u += "?county=" + url.QueryEscape(county)
	}

	var listing floodsResponse
	if err := c.getJSON(ctx, u, &listing); err != nil {
		return nil, err
	}

	warnings := make([]Warning, 0, len(listing.Items))
	for _, item := range listing.Items {
		w := Warning{
			FloodAreaID:         item.FloodAreaID,
			Description:         item.Description,
			Severity:            item.Severity,
			SeverityLevel:       item.SeverityLevel,
			TimeRaised:          item.TimeRaised,
			TimeSeverityChanged: item.TimeSeverityChanged,
		}
		if item.FloodArea.Polygon != "" {
			area, err := c.fetchAreaPolygon(ctx, item.FloodArea.Polygon)
			if err != nil {
				c.logger.Warn("could not resolve flood area polygon",
					"flood_area", item.FloodAreaID, "url", item.FloodArea.Polygon, "error", err)
			} else {
				w.Area = area
			}
		}
		warnings = append(warnings, w)
	}

	c.logger.Debug("fetched flood warnings", "count", len(warnings), "county", county)
	return warnings, nil
}

// fetchAreaPolygon resolves a flood-area polygon URL. The API serves a
// FeatureCollection for most areas, a bare Feature or geometry for some.
func (c *Client) fetchAreaPolygon(ctx context.Context, polyURL string) (orb.Geometry, error) {
	if !strings.HasSuffix(polyURL, ".json") {
		polyURL += ".json"
	}

	data, err := c.get(ctx, polyURL)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode polygon: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		geoms := make([]orb.Geometry, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
		switch len(geoms) {
		case 0:
			return nil, nil
		case 1:
			return geoms[0], nil
		default:
			return orb.Collection(geoms), nil
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		return f.Geometry, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		return g.Geometry(), nil
	}
}

// DayReadings streams one day of raw telemetry readings (CSV) into w and
// returns the number of bytes written. date must be YYYY-MM-DD.
func (c *Client) DayReadings(ctx context.Context, date string, w io.Writer) (int64, error) {
	u := fmt.Sprintf("%s/data/readings.csv?date=%s", c.baseURL, url.QueryEscape(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &domain.FetchError{Source: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &domain.FetchError{Source: u, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &domain.FetchError{Source: u, Err: err}
	}
	c.logger.Debug("fetched readings", "date", date, "bytes", n)
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	data, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.FetchError{Source: u, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Source: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.FetchError{Source: u, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	return io.ReadAll(resp.Body)
}

// MergeWarnings builds a FeatureCollection with one feature per warning,
// carrying the warning fields as properties. Warnings without geometry get
// a null-geometry feature so the record of the warning is not lost.
func MergeWarnings(warnings []Warning) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, w := range warnings {
		f := geojson.NewFeature(w.Area)
		f.Properties = geojson.Properties{
			"floodAreaID":         w.FloodAreaID,
			"description":         w.Description,
			"severity":            w.Severity,
			"severityLevel":       w.SeverityLevel,
			"timeRaised":          w.TimeRaised,
			"timeSeverityChanged": w.TimeSeverityChanged,
		}
		fc.Append(f)
	}
	return fc
}

// Flood-monitoring API response types.

type floodsResponse struct {
	Items []floodItem `json:"items"`
}

type floodItem struct {
	FloodAreaID         string    `json:"floodAreaID"`
	Description         string    `json:"description"`
	Severity            string    `json:"severity"`
	SeverityLevel       int       `json:"severityLevel"`
	TimeRaised          string    `json:"timeRaised"`
	TimeSeverityChanged string    `json:"timeSeverityChanged"`
	FloodArea           floodArea `json:"floodArea"`
}

type floodArea struct {
	Polygon string `json:"polygon"`
}
