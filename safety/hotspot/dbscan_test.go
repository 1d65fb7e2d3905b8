package hotspot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// cityParams matches the hotspot section of the default configuration.
var cityParams = Params{EpsDeg: 0.001, MinSamples: 5}

// blob returns n points spread within spread degrees of center.
func blob(rng *rand.Rand, center safety.Point, n int, spread float64) []safety.Point {
	pts := make([]safety.Point, n)
	for i := range pts {
		pts[i] = safety.Point{
			Lat: center.Lat + (rng.Float64()*2-1)*spread,
			Lon: center.Lon + (rng.Float64()*2-1)*spread,
		}
	}
	return pts
}

func constSeverities(n, sev int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = sev
	}
	return s
}

func TestBuild_TwoDenseGroups_TwoClusters(t *testing.T) {
	// GIVEN two well-separated dense groups
	rng := rand.New(rand.NewSource(1))
	a := blob(rng, safety.Point{Lat: 28.60, Lon: 77.20}, 10, 0.0002)
	b := blob(rng, safety.Point{Lat: 28.65, Lon: 77.25}, 8, 0.0002)
	points := append(append([]safety.Point{}, a...), b...)
	sev := append(constSeverities(10, 4), constSeverities(8, 2)...)

	// WHEN clustered with default parameters
	clusters := Build(points, sev, cityParams)

	// THEN both groups are found in discovery order
	require.Len(t, clusters, 2)
	assert.Equal(t, 1, clusters[0].ID)
	assert.Equal(t, 10, clusters[0].Size)
	assert.InDelta(t, 4.0, clusters[0].MeanSeverity, 1e-12)
	assert.InDelta(t, 28.60, clusters[0].Centroid.Lat, 0.0003)
	assert.Equal(t, 8, clusters[1].Size)
	assert.InDelta(t, 2.0, clusters[1].MeanSeverity, 1e-12)
	assert.InDelta(t, 77.25, clusters[1].Centroid.Lon, 0.0003)
}

func TestBuild_SparseData_NoClusters(t *testing.T) {
	// GIVEN points spaced far beyond eps
	points := make([]safety.Point, 20)
	for i := range points {
		points[i] = safety.Point{Lat: 28.4 + float64(i)*0.01, Lon: 77.0}
	}

	// WHEN clustered
	clusters := Build(points, constSeverities(20, 3), cityParams)

	// THEN zero clusters is a valid, non-nil result
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestBuild_Empty(t *testing.T) {
	clusters := Build(nil, nil, cityParams)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestLabels_MinSamplesCountsSelf(t *testing.T) {
	// GIVEN exactly MinSamples coincident points
	p := safety.Point{Lat: 28.6, Lon: 77.2}
	points := []safety.Point{p, p, p, p, p}

	// WHEN labelled
	labels := Labels(points, cityParams)

	// THEN they form one cluster (the point itself is part of its neighbourhood)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, labels)

	// AND one fewer point is all noise
	labels = Labels(points[:4], cityParams)
	assert.Equal(t, []int{-1, -1, -1, -1}, labels)
}

func TestLabels_NoiseExcludedFromClusters(t *testing.T) {
	// GIVEN a dense group plus an isolated point
	p := safety.Point{Lat: 28.6, Lon: 77.2}
	points := []safety.Point{
		{Lat: 28.7, Lon: 77.3}, // isolated
		p, p, p, p, p,
	}

	// WHEN clustered
	labels := Labels(points, cityParams)
	clusters := Build(points, constSeverities(len(points), 5), cityParams)

	// THEN the isolated point is noise and not counted
	assert.Equal(t, -1, labels[0])
	require.Len(t, clusters, 1)
	assert.Equal(t, 5, clusters[0].Size)
}

func TestLabels_BorderPointJoinsCluster(t *testing.T) {
	// GIVEN a core group and a point within eps of the core but with a sparse neighbourhood
	core := safety.Point{Lat: 28.6, Lon: 77.2}
	border := safety.Point{Lat: 28.6009, Lon: 77.2}
	points := []safety.Point{border, core, core, core, core, core}

	// WHEN labelled
	labels := Labels(points, cityParams)

	// THEN the border point, first marked noise, is absorbed into the cluster
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, labels)
}

func TestBuild_Deterministic(t *testing.T) {
	// GIVEN a random dataset
	rng := rand.New(rand.NewSource(7))
	points := blob(rng, safety.Point{Lat: 28.6, Lon: 77.2}, 500, 0.01)
	sev := make([]int, len(points))
	for i := range sev {
		sev[i] = 1 + rng.Intn(5)
	}

	// WHEN clustered twice
	first := Build(points, sev, cityParams)
	second := Build(points, sev, cityParams)

	// THEN results are identical
	assert.Equal(t, first, second)
}

func TestClusterer_Cluster_UsesIncidentSeverity(t *testing.T) {
	incidents := make([]safety.Incident, 6)
	for i := range incidents {
		incidents[i] = safety.Incident{ID: string(rune('a' + i)), Lat: 28.6, Lon: 77.2, Severity: 1 + i%2}
	}

	clusters := NewClusterer(cityParams.EpsDeg, cityParams.MinSamples).Cluster(incidents)

	require.Len(t, clusters, 1)
	assert.InDelta(t, 1.5, clusters[0].MeanSeverity, 1e-12)
}
