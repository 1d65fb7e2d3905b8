package candidates

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

var (
	src = safety.Point{Lat: 28.60, Lon: 77.20}
	dst = safety.Point{Lat: 28.62, Lon: 77.22}
)

// fakeProvider serves fixed main routes for src→dst and straight two-segment
// legs for any other pair.
type fakeProvider struct {
	mu      sync.Mutex
	main    [][]safety.Point
	mainErr error
	legErr  func(a, b safety.Point) error
	calls   []int // max argument per call
}

func (f *fakeProvider) Alternatives(_ context.Context, a, b safety.Point, max int) ([][]safety.Point, error) {
	f.mu.Lock()
	f.calls = append(f.calls, max)
	f.mu.Unlock()
	if a == src && b == dst {
		return f.main, f.mainErr
	}
	if f.legErr != nil {
		if err := f.legErr(a, b); err != nil {
			return nil, err
		}
	}
	mid := safety.Point{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
	return [][]safety.Point{{a, mid, b}}, nil
}

// bent returns src→(bend)→dst with the bend offset by off degrees.
func bent(off float64) []safety.Point {
	return []safety.Point{src, {Lat: 28.61 + off, Lon: 77.21 - off}, dst}
}

func defaultCfg() safety.CandidateConfig {
	return safety.DefaultConfig().Candidates
}

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestBuild_EnoughRoutes_NoDetourRequests(t *testing.T) {
	// GIVEN a provider that already returns 8 distinct routes
	var main [][]safety.Point
	for i := 0; i < 8; i++ {
		main = append(main, bent(float64(i)*0.0001))
	}
	p := &fakeProvider{main: main}

	// WHEN building candidates
	res, err := NewBuilder(p, defaultCfg()).Build(context.Background(), src, dst)

	// THEN only the primary request is made and the list is capped at 7
	require.NoError(t, err)
	assert.Equal(t, []int{3}, p.calls)
	assert.Empty(t, res.Detours)
	assert.Len(t, res.Candidates, 7)
	assert.Equal(t, 8, res.Discovered)
	assert.Len(t, res.Dropped, 1)
}

func TestBuild_FewRoutes_RequestsDetours(t *testing.T) {
	// GIVEN a provider with a single route
	p := &fakeProvider{main: [][]safety.Point{bent(0)}}

	// WHEN building candidates
	res, err := NewBuilder(p, defaultCfg()).Build(context.Background(), src, dst)

	// THEN three waypoints are tried, two single-alternative legs each
	require.NoError(t, err)
	require.Len(t, res.Detours, 3)
	assert.Equal(t, []int{3, 1, 1, 1, 1, 1, 1}, p.calls)
	assert.Equal(t, 4, res.Discovered)
	for _, d := range res.Detours {
		if !d.Skipped() {
			// leg1 (3 points) + leg2 (3 points) minus the shared seam
			assert.Len(t, d.Route, 5)
			assert.Equal(t, d.Waypoint, d.Route[2])
		}
	}
}

func TestBuild_DeduplicatesIdenticalRoutes(t *testing.T) {
	// GIVEN duplicates in the provider response, plus a reversed copy
	r := bent(0)
	rev := []safety.Point{r[2], r[1], r[0]}
	cfg := defaultCfg()
	cfg.Waypoints = 0
	p := &fakeProvider{main: [][]safety.Point{r, bent(0), rev}}

	// WHEN building
	res, err := NewBuilder(p, cfg).Build(context.Background(), src, dst)

	// THEN exact duplicates collapse but order-sensitive variants survive
	require.NoError(t, err)
	assert.Equal(t, 2, res.Discovered)
	assert.ElementsMatch(t, []string{"Route 1", "Route 2"}, names(res.Candidates))
}

func TestBuild_DistanceFilterAndOrdering(t *testing.T) {
	// GIVEN a long route found first and a shorter one found second
	long := []safety.Point{src, {Lat: 28.70, Lon: 77.10}, dst}
	short := bent(0)
	cfg := defaultCfg()
	cfg.Waypoints = 0
	p := &fakeProvider{main: [][]safety.Point{long, short}}

	// WHEN building
	res, err := NewBuilder(p, cfg).Build(context.Background(), src, dst)

	// THEN the long route exceeds 1.5× the shortest and is dropped; names keep discovery order
	require.NoError(t, err)
	assert.Equal(t, []string{"Route 2"}, names(res.Candidates))
	assert.Equal(t, []string{"Route 1"}, res.Dropped)
}

func TestBuild_SortedAscendingByDistance(t *testing.T) {
	cfg := defaultCfg()
	cfg.Waypoints = 0
	p := &fakeProvider{main: [][]safety.Point{bent(0.002), bent(0), bent(0.001)}}

	res, err := NewBuilder(p, cfg).Build(context.Background(), src, dst)

	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)
	for i := 1; i < len(res.Candidates); i++ {
		assert.LessOrEqual(t, res.Candidates[i-1].DistanceKm, res.Candidates[i].DistanceKm)
	}
	assert.Equal(t, "Route 2", res.Candidates[0].Name)
}

func TestBuild_PrimaryFailure_ProviderUnavailable(t *testing.T) {
	p := &fakeProvider{mainErr: errors.New("connection refused")}

	_, err := NewBuilder(p, defaultCfg()).Build(context.Background(), src, dst)

	assert.ErrorIs(t, err, safety.ErrProviderUnavailable)
}

func TestBuild_NoRoutesAtAll_ProviderUnavailable(t *testing.T) {
	// GIVEN no primary routes and every detour leg failing
	p := &fakeProvider{legErr: func(a, b safety.Point) error { return errors.New("timeout") }}

	// WHEN building
	_, err := NewBuilder(p, defaultCfg()).Build(context.Background(), src, dst)

	// THEN the request fails with a provider error
	require.Error(t, err)
	assert.ErrorIs(t, err, safety.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "no routes available")
}

func TestBuild_LegFailure_SkippedNotFatal(t *testing.T) {
	// GIVEN inbound legs that always fail
	p := &fakeProvider{
		main:   [][]safety.Point{bent(0)},
		legErr: func(a, b safety.Point) error {
			if b == dst {
				return errors.New("502")
			}
			return nil
		},
	}

	// WHEN building
	res, err := NewBuilder(p, defaultCfg()).Build(context.Background(), src, dst)

	// THEN every detour is an explicit skip and the primary route survives
	require.NoError(t, err)
	require.Len(t, res.Detours, 3)
	for _, d := range res.Detours {
		assert.True(t, d.Skipped())
		assert.Equal(t, SkipInboundLeg, d.Skip)
		assert.Error(t, d.Err)
		assert.Nil(t, d.Route)
	}
	assert.Len(t, res.Candidates, 1)
}

func TestBuild_WaypointsDeterministicAndInsidePaddedBox(t *testing.T) {
	cfg := defaultCfg()
	run := func() []safety.Point {
		p := &fakeProvider{main: [][]safety.Point{bent(0)}}
		res, err := NewBuilder(p, cfg).Build(context.Background(), src, dst)
		require.NoError(t, err)
		wps := make([]safety.Point, len(res.Detours))
		for i, d := range res.Detours {
			wps[i] = d.Waypoint
		}
		return wps
	}

	first, second := run(), run()
	assert.Equal(t, first, second)

	box := safety.Bounds{
		MinLat: src.Lat - cfg.PaddingDeg, MaxLat: dst.Lat + cfg.PaddingDeg,
		MinLon: src.Lon - cfg.PaddingDeg, MaxLon: dst.Lon + cfg.PaddingDeg,
	}
	for _, wp := range first {
		assert.True(t, box.Contains(wp), "waypoint %v outside padded box", wp)
	}
}

func TestBuildResult_Routes(t *testing.T) {
	cfg := defaultCfg()
	cfg.Waypoints = 0
	p := &fakeProvider{main: [][]safety.Point{bent(0)}}

	res, err := NewBuilder(p, cfg).Build(context.Background(), src, dst)

	require.NoError(t, err)
	routes := res.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "Route 1", routes[0].Name)
	assert.Equal(t, bent(0), routes[0].Points)
}
