package floodapi

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-impact-etl/internal/domain"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		baseURL:    srv.URL,
		httpClient: srv.Client(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const polygonFC = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[-2.1, 51.4], [-2.0, 51.4], [-2.0, 51.5], [-2.1, 51.4]]]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[-2.3, 51.2], [-2.2, 51.2], [-2.2, 51.3], [-2.3, 51.2]]]}}
	]
}`

func TestCurrentWarnings(t *testing.T) {
	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/id/floods", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "gloucestershire", r.URL.Query().Get("county"))
		w.Write([]byte(`{
			"items": [
				{
					"floodAreaID": "011WAFDW",
					"description": "River Severn at Deerhurst",
					"severity": "Flood warning",
					"severityLevel": 2,
					"timeRaised": "2024-11-20T06:15:00",
					"timeSeverityChanged": "2024-11-20T06:15:00",
					"floodArea": {"polygon": "` + baseURL + `/id/floodAreas/011WAFDW/polygon"}
				},
				{
					"floodAreaID": "011FWFNC5",
					"description": "Coberley Brook",
					"severity": "Flood alert",
					"severityLevel": 3,
					"timeRaised": "2024-11-19T22:02:00",
					"timeSeverityChanged": "2024-11-19T22:02:00",
					"floodArea": {}
				}
			]
		}`))
	})
	mux.HandleFunc("/id/floodAreas/011WAFDW/polygon.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(polygonFC))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	baseURL = srv.URL

	warnings, err := testClient(srv).CurrentWarnings(context.Background(), "gloucestershire")
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	first := warnings[0]
	assert.Equal(t, "011WAFDW", first.FloodAreaID)
	assert.Equal(t, "River Severn at Deerhurst", first.Description)
	assert.Equal(t, "Flood warning", first.Severity)
	assert.Equal(t, 2, first.SeverityLevel)
	assert.Equal(t, "2024-11-20T06:15:00", first.TimeRaised)
	require.IsType(t, orb.Collection{}, first.Area)
	assert.Len(t, first.Area.(orb.Collection), 2)

	second := warnings[1]
	assert.Equal(t, "011FWFNC5", second.FloodAreaID)
	assert.Equal(t, 3, second.SeverityLevel)
	assert.Nil(t, second.Area)
}

func TestCurrentWarnings_PolygonFailureIsNotFatal(t *testing.T) {
	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/id/floods", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"floodAreaID": "X1", "severityLevel": 1, "floodArea": {"polygon": "` + baseURL + `/id/floodAreas/X1/polygon"}}]}`))
	})
	mux.HandleFunc("/id/floodAreas/X1/polygon.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	baseURL = srv.URL

	warnings, err := testClient(srv).CurrentWarnings(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Nil(t, warnings[0].Area)
}

func TestCurrentWarnings_ListingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv).CurrentWarnings(context.Background(), "")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Source, "/id/floods")
	assert.Contains(t, err.Error(), "status 503")
}

func TestCurrentWarnings_MalformedListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv).CurrentWarnings(context.Background(), "")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCurrentWarnings_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv).CurrentWarnings(ctx, "")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAreaPolygon_Shapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "feature collection with one feature",
			body: `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}]}`,
		},
		{
			name: "bare feature",
			body: `{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}`,
		},
		{
			name: "bare geometry",
			body: `{"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/poly.json", r.URL.Path)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			area, err := testClient(srv).fetchAreaPolygon(context.Background(), srv.URL+"/poly")
			require.NoError(t, err)
			require.IsType(t, orb.Polygon{}, area)
		})
	}
}

func TestFetchAreaPolygon_KeepsJSONSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/poly.json", r.URL.Path)
		w.Write([]byte(`{"type": "Point", "coordinates": [1, 2]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).fetchAreaPolygon(context.Background(), srv.URL+"/poly.json")
	require.NoError(t, err)
}

func TestDayReadings(t *testing.T) {
	const csv = "dateTime,measure,value\n2024-11-20T00:00:00Z,level-stage-i-15_min-m,0.912\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/readings.csv", r.URL.Path)
		assert.Equal(t, "2024-11-20", r.URL.Query().Get("date"))
		w.Write([]byte(csv))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := testClient(srv).DayReadings(context.Background(), "2024-11-20", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(csv)), n)
	assert.Equal(t, csv, buf.String())
}

func TestDayReadings_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	_, err := testClient(srv).DayReadings(context.Background(), "2024-11-20", &buf)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "status 429")
}

func TestMergeWarnings(t *testing.T) {
	warnings := []Warning{
		{
			FloodAreaID:   "011WAFDW",
			Description:   "River Severn at Deerhurst",
			Severity:      "Flood warning",
			SeverityLevel: 2,
			Area:          orb.Polygon{{{-2.1, 51.4}, {-2.0, 51.4}, {-2.0, 51.5}, {-2.1, 51.4}}},
		},
		{FloodAreaID: "011FWFNC5", SeverityLevel: 3},
	}

	fc := MergeWarnings(warnings)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "011WAFDW", first.Properties["floodAreaID"])
	assert.Equal(t, 2, first.Properties["severityLevel"])
	require.IsType(t, orb.Polygon{}, first.Geometry)

	second := fc.Features[1]
	assert.Equal(t, "011FWFNC5", second.Properties["floodAreaID"])
	assert.Nil(t, second.Geometry)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("https://environment.data.gov.uk/flood-monitoring/", 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "https://environment.data.gov.uk/flood-monitoring", c.baseURL)
}
