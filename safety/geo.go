package safety

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// KmPerDegree converts between kilometres and decimal degrees. This is the
// equatorial approximation; the error is acceptable at city scale.
const KmPerDegree = 111.0

// Orb returns p as an orb point (lon, lat order).
func (p Point) Orb() orb.Point { return orb.Point{p.Lon, p.Lat} }

// PointFromOrb converts an orb point back to a Point.
func PointFromOrb(p orb.Point) Point { return Point{Lat: p.Lat(), Lon: p.Lon()} }

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b Point) float64 {
	return geo.DistanceHaversine(a.Orb(), b.Orb()) / 1000
}

// PathLengthKm sums the great-circle distances of successive points.
// Paths with fewer than two points have length 0.
func PathLengthKm(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// SamePath reports whether a and b hold the same coordinates in the same order.
func SamePath(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
