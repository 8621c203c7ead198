package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input with cause", &InputError{Path: "mask.tif", Reason: "open failed", Err: fs.ErrNotExist}, "input mask.tif: open failed: file does not exist"},
		{"input without cause", &InputError{Path: "mask.tif", Reason: "3 bands, want 1"}, "input mask.tif: 3 bands, want 1"},
		{"fetch", &FetchError{Source: "https://overpass.example/api", Err: errors.New("timeout")}, "fetch https://overpass.example/api: timeout"},
		{"geometry", &GeometryError{SegmentID: "way/9", Reason: "fewer than two vertices"}, "segment way/9: fewer than two vertices"},
		{"projection", &ProjectionError{FromEPSG: 4326, ToEPSG: 32630, Err: errors.New("no path")}, "reproject EPSG:4326 to EPSG:32630: no path"},
		{"io", &IOError{Path: "out.json", Err: errors.New("disk full")}, "write out.json: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("fetch roads: %w", &FetchError{Source: "overpass", Err: cause})

	var fe *FetchError
	require.ErrorAs(t, wrapped, &fe)
	assert.Equal(t, "overpass", fe.Source)
	assert.ErrorIs(t, wrapped, cause)

	var ie *InputError
	assert.False(t, errors.As(wrapped, &ie))
}
