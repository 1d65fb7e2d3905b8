package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

const twoRoutes = `{
  "code": "Ok",
  "routes": [
    {"distance": 2900.5, "duration": 410.2,
     "geometry": {"type": "LineString", "coordinates": [[77.2, 28.6], [77.21, 28.61], [77.22, 28.62]]}},
    {"distance": 3400.1, "duration": 520.0,
     "geometry": {"type": "LineString", "coordinates": [[77.2, 28.6], [77.205, 28.615], [77.22, 28.62]]}}
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg := safety.DefaultConfig().OSRM
	cfg.BaseURL = srv.URL + "/"
	return NewClient(cfg), &seen
}

var (
	src = safety.Point{Lat: 28.6, Lon: 77.2}
	dst = safety.Point{Lat: 28.62, Lon: 77.22}
)

func TestAlternatives_ParsesGeoJSONInLatLonOrder(t *testing.T) {
	// GIVEN a server returning two alternatives
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoRoutes))
	})

	// WHEN requesting three alternatives
	paths, err := c.Alternatives(context.Background(), src, dst, 3)

	// THEN both come back with coordinates swapped to (lat, lon)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, safety.Point{Lat: 28.61, Lon: 77.21}, paths[0][1])
	assert.Equal(t, safety.Point{Lat: 28.615, Lon: 77.205}, paths[1][1])

	// AND the request uses lon,lat order with the requested alternatives
	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "/route/v1/driving/77.200000,28.600000;77.220000,28.620000", req.URL.Path)
	assert.Equal(t, "3", req.URL.Query().Get("alternatives"))
	assert.Equal(t, "geojson", req.URL.Query().Get("geometries"))
	assert.Equal(t, "full", req.URL.Query().Get("overview"))
}

func TestAlternatives_TruncatesToMax(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRoutes))
	})

	paths, err := c.Alternatives(context.Background(), src, dst, 1)

	require.NoError(t, err)
	assert.Len(t, paths, 1)
	assert.Equal(t, "false", (*seen)[0].URL.Query().Get("alternatives"))
}

func TestAlternatives_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errMsg string
	}{
		{"http error with message", http.StatusBadRequest, `{"code":"InvalidQuery","message":"bad coordinates"}`, "status 400: bad coordinates"},
		{"http error without body", http.StatusBadGateway, ``, "status 502"},
		{"no route code", http.StatusOK, `{"code":"NoRoute","message":"Impossible route","routes":[]}`, "NoRoute"},
		{"malformed json", http.StatusOK, `{"code":`, "decode"},
		{"point geometry", http.StatusOK, `{"code":"Ok","routes":[{"geometry":{"type":"Point","coordinates":[77.2,28.6]}}]}`, "want LineString"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Alternatives(context.Background(), src, dst, 3)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAlternatives_CancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoRoutes))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Alternatives(ctx, src, dst, 3)

	assert.ErrorIs(t, err, context.Canceled)
}
