// Package candidates produces the set of candidate routes to evaluate between
// a source and a destination.
package candidates

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// RoutingProvider returns up to max alternative polylines between two points.
// Implementations block on I/O and must honour ctx cancellation.
type RoutingProvider interface {
	Alternatives(ctx context.Context, src, dst safety.Point, max int) ([][]safety.Point, error)
}

// Skip reasons recorded on DetourResult.
const (
	SkipOutboundLeg = "outbound_leg_failed"
	SkipInboundLeg  = "inbound_leg_failed"
	SkipEmptyLeg    = "empty_leg"
	SkipDuplicate   = "duplicate_route"
)

// DetourResult is the outcome of one waypoint detour attempt.
// Exactly one of Route and Skip is set.
type DetourResult struct {
	Waypoint safety.Point
	Route    []safety.Point
	Skip     string
	Err      error // underlying provider error for leg failures
}

// Skipped reports whether the detour produced no route.
func (r DetourResult) Skipped() bool { return r.Skip != "" }

// Candidate is a named route with its geodesic length.
type Candidate struct {
	safety.RouteCandidate
	DistanceKm float64
}

// BuildResult carries the final candidates plus what happened along the way.
type BuildResult struct {
	Candidates []Candidate    // ascending by distance
	Detours    []DetourResult // one per waypoint tried
	Discovered int            // unique routes before filtering
	Dropped    []string       // names removed by the distance filter or the cap
}

// Builder generates candidate routes. Safe for concurrent use.
type Builder struct {
	provider RoutingProvider
	cfg      safety.CandidateConfig

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewBuilder creates a Builder. Waypoints are drawn from an RNG seeded by cfg.Seed.
func NewBuilder(provider RoutingProvider, cfg safety.CandidateConfig) *Builder {
	rng := safety.NewPartitionedRNG(safety.NewRunKey(cfg.Seed)).ForSubsystem(safety.SubsystemWaypoints)
	return &Builder{provider: provider, cfg: cfg, rng: rng}
}

// Build returns deduplicated candidate routes between src and dst, at most
// cfg.MaxRoutes long, each within cfg.MaxDistanceRatio of the shortest.
// Returns safety.ErrProviderUnavailable when no route could be obtained.
func (b *Builder) Build(ctx context.Context, src, dst safety.Point) (*BuildResult, error) {
	paths, err := b.provider.Alternatives(ctx, src, dst, b.cfg.MaxAlternatives)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", safety.ErrProviderUnavailable, err)
	}

	var found []safety.RouteCandidate
	add := func(points []safety.Point) bool {
		for _, existing := range found {
			if safety.SamePath(existing.Points, points) {
				return false
			}
		}
		found = append(found, safety.RouteCandidate{
			Name:   fmt.Sprintf("Route %d", len(found)+1),
			Points: points,
		})
		return true
	}

	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		add(p)
	}

	result := &BuildResult{}
	if len(found) < b.cfg.DetourThreshold {
		for _, wp := range b.waypoints(src, dst) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			detour := b.detour(ctx, src, wp, dst)
			if !detour.Skipped() && !add(detour.Route) {
				detour.Route = nil
				detour.Skip = SkipDuplicate
			}
			if detour.Skipped() {
				logrus.Warnf("[candidates] skipping waypoint (%.5f, %.5f): %s", wp.Lat, wp.Lon, detour.Skip)
			}
			result.Detours = append(result.Detours, detour)
		}
	}

	result.Discovered = len(found)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no routes available", safety.ErrProviderUnavailable)
	}

	result.Candidates, result.Dropped = b.filter(found)
	logrus.Infof("[candidates] generated %d unique routes (%d discovered)", len(result.Candidates), result.Discovered)
	return result, nil
}

// detour fetches src→wp and wp→dst and joins them, dropping the shared seam point.
func (b *Builder) detour(ctx context.Context, src, wp, dst safety.Point) DetourResult {
	res := DetourResult{Waypoint: wp}

	out, err := b.provider.Alternatives(ctx, src, wp, 1)
	if err != nil {
		res.Skip, res.Err = SkipOutboundLeg, err
		return res
	}
	in, err := b.provider.Alternatives(ctx, wp, dst, 1)
	if err != nil {
		res.Skip, res.Err = SkipInboundLeg, err
		return res
	}
	if len(out) == 0 || len(in) == 0 || len(out[0]) == 0 || len(in[0]) == 0 {
		res.Skip = SkipEmptyLeg
		return res
	}

	leg1, leg2 := out[0], in[0]
	route := make([]safety.Point, 0, len(leg1)-1+len(leg2))
	route = append(route, leg1[:len(leg1)-1]...)
	route = append(route, leg2...)
	res.Route = route
	return res
}

// waypoints draws cfg.Waypoints uniform points inside the padded bounding box
// of src and dst.
func (b *Builder) waypoints(src, dst safety.Point) []safety.Point {
	box := orb.MultiPoint{src.Orb(), dst.Orb()}.Bound().Pad(b.cfg.PaddingDeg)

	b.mu.Lock()
	defer b.mu.Unlock()
	wps := make([]safety.Point, b.cfg.Waypoints)
	for i := range wps {
		lat := box.Min.Lat() + b.rng.Float64()*(box.Max.Lat()-box.Min.Lat())
		lon := box.Min.Lon() + b.rng.Float64()*(box.Max.Lon()-box.Min.Lon())
		wps[i] = safety.Point{Lat: lat, Lon: lon}
	}
	return wps
}

// filter keeps routes within MaxDistanceRatio of the shortest, sorted by
// distance (ties keep discovery order), capped at MaxRoutes.
func (b *Builder) filter(found []safety.RouteCandidate) (kept []Candidate, dropped []string) {
	all := make([]Candidate, len(found))
	shortest := 0.0
	for i, rc := range found {
		d := safety.PathLengthKm(rc.Points)
		all[i] = Candidate{RouteCandidate: rc, DistanceKm: d}
		if i == 0 || d < shortest {
			shortest = d
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].DistanceKm < all[j].DistanceKm })

	limit := shortest * b.cfg.MaxDistanceRatio
	for _, c := range all {
		if c.DistanceKm > limit || len(kept) >= b.cfg.MaxRoutes {
			dropped = append(dropped, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

// Routes returns the plain route candidates of r.
func (r *BuildResult) Routes() []safety.RouteCandidate {
	out := make([]safety.RouteCandidate, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.RouteCandidate
	}
	return out
}
