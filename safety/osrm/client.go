// Package osrm is a routing provider backed by the OSRM HTTP route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// routeResponse is the subset of the OSRM /route reply we consume.
type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64   `json:"distance"` // metres
	Duration float64   `json:"duration"` // seconds
	Geometry *geometry `json:"geometry"`
}

// geometry is a GeoJSON geometry object; OSRM emits LineStrings in (lon, lat) order.
type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Client requests route alternatives from an OSRM server. It implements
// candidates.RoutingProvider. Requests are never retried.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewClient creates a Client from cfg.
func NewClient(cfg safety.OSRMConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Alternatives returns up to max polylines from src to dst, in provider order.
func (c *Client) Alternatives(ctx context.Context, src, dst safety.Point, max int) ([][]safety.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(src, dst, max), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OSRM API: %w", err)
	}
	defer resp.Body.Close()

	var body routeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Message != "" {
			return nil, fmt.Errorf("OSRM API returned status %d: %s", resp.StatusCode, body.Message)
		}
		return nil, fmt.Errorf("OSRM API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode OSRM response: %w", decodeErr)
	}
	if body.Code != "Ok" {
		return nil, fmt.Errorf("OSRM returned code %q: %s", body.Code, body.Message)
	}

	paths := make([][]safety.Point, 0, len(body.Routes))
	for i, r := range body.Routes {
		if len(paths) == max {
			break
		}
		if r.Geometry == nil {
			return nil, fmt.Errorf("route %d has no geometry", i)
		}
		if r.Geometry.Type != "LineString" {
			return nil, fmt.Errorf("route %d geometry is %s, want LineString", i, r.Geometry.Type)
		}
		var line orb.LineString
		if err := json.Unmarshal(r.Geometry.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("route %d coordinates: %w", i, err)
		}
		path := make([]safety.Point, len(line))
		for j, p := range line {
			path[j] = safety.PointFromOrb(p)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// routeURL builds /route/v1/{profile}/{lon},{lat};{lon},{lat}.
func (c *Client) routeURL(src, dst safety.Point, max int) string {
	alternatives := "false"
	if max > 1 {
		alternatives = fmt.Sprintf("%d", max)
	}
	return fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?alternatives=%s&overview=full&geometries=geojson",
		c.baseURL, c.profile,
		src.Lon, src.Lat,
		dst.Lon, dst.Lat,
		alternatives,
	)
}
