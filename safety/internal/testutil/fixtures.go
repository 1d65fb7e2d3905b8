// Package testutil provides shared test fixtures for the safety packages:
// the checked-in incident dataset, synthetic incident generators and float
// assertion helpers.
package testutil

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
)

// Fixture hotspot centres in testdata/incidents.csv.
var (
	HighSeverityHotspot = safety.Point{Lat: 28.6315, Lon: 77.2167}
	LowSeverityHotspot  = safety.Point{Lat: 28.5355, Lon: 77.3910}
)

// FixturePath returns the absolute path of a file under the repo-root testdata/.
func FixturePath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from safety/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Fixture %s not found: %v", name, err)
	}
	return path
}

// LoadIncidents parses testdata/incidents.csv.
func LoadIncidents(t *testing.T) []safety.Incident {
	t.Helper()
	incidents, err := dataset.NewCSVSource().Load(context.Background(), FixturePath(t, "incidents.csv"))
	if err != nil {
		t.Fatalf("Failed to load incident fixture: %v", err)
	}
	return incidents
}

// Cluster returns n incidents of the given severity within spread degrees of
// center. IDs are prefix-0 … prefix-(n-1).
func Cluster(rng *rand.Rand, prefix string, center safety.Point, n, severity int, spread float64) []safety.Incident {
	out := make([]safety.Incident, n)
	for i := range out {
		out[i] = safety.Incident{
			ID:       fmt.Sprintf("%s-%d", prefix, i),
			Category: "Theft",
			Lat:      center.Lat + (rng.Float64()*2-1)*spread,
			Lon:      center.Lon + (rng.Float64()*2-1)*spread,
			Severity: severity,
		}
	}
	return out
}

// Scatter returns n incidents uniform inside b with random severity and category.
func Scatter(rng *rand.Rand, prefix string, b safety.Bounds, n int) []safety.Incident {
	categories := []string{"Theft", "Assault", "Robbery", "Harassment", "Vandalism"}
	out := make([]safety.Incident, n)
	for i := range out {
		out[i] = safety.Incident{
			ID:       fmt.Sprintf("%s-%d", prefix, i),
			Category: categories[rng.Intn(len(categories))],
			Lat:      b.MinLat + rng.Float64()*(b.MaxLat-b.MinLat),
			Lon:      b.MinLon + rng.Float64()*(b.MaxLon-b.MinLon),
			Severity: 1 + rng.Intn(5),
		}
	}
	return out
}

// StraightRoute returns n evenly spaced points from a to b inclusive.
func StraightRoute(a, b safety.Point, n int) []safety.Point {
	if n < 2 {
		return []safety.Point{a}
	}
	pts := make([]safety.Point, n)
	for i := range pts {
		f := float64(i) / float64(n-1)
		pts[i] = safety.Point{Lat: a.Lat + f*(b.Lat-a.Lat), Lon: a.Lon + f*(b.Lon-a.Lon)}
	}
	return pts
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
