// Package hotspot groups incidents into dense spatial clusters (hotspots).
package hotspot

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

const (
	labelUnvisited = 0
	labelNoise     = -1

	// R-tree node fan-out, matching common rtreego usage.
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// Params contains parameters for the DBSCAN clustering algorithm.
type Params struct {
	EpsDeg     float64 // neighbourhood radius in degrees
	MinSamples int     // minimum neighbourhood size, the point itself included
}

// Cluster is one hotspot: a dense group of incidents.
type Cluster struct {
	ID           int // 1-based, in discovery order
	Centroid     safety.Point
	MeanSeverity float64
	Size         int
}

// Labels runs DBSCAN over points and returns one label per point:
// -1 for noise, otherwise the 1-based cluster ID.
//
// Points are visited in input order and neighbour lists are sorted by index,
// so identical input always yields identical labels.
func Labels(points []safety.Point, params Params) []int {
	n := len(points)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}

	idx := newRegionIndex(points, params.EpsDeg)
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != labelUnvisited {
			continue
		}
		neighbors := idx.regionQuery(i)
		if len(neighbors) < params.MinSamples {
			labels[i] = labelNoise
			continue
		}
		clusterID++
		expandCluster(idx, labels, i, neighbors, clusterID, params.MinSamples)
	}
	return labels
}

// expandCluster grows a cluster breadth-first from a core point.
func expandCluster(idx *regionIndex, labels []int, seed int, neighbors []int, clusterID, minSamples int) {
	labels[seed] = clusterID

	for j := 0; j < len(neighbors); j++ {
		p := neighbors[j]

		if labels[p] == labelNoise {
			labels[p] = clusterID // noise becomes a border point
		}
		if labels[p] != labelUnvisited {
			continue
		}

		labels[p] = clusterID
		next := idx.regionQuery(p)
		if len(next) >= minSamples {
			neighbors = append(neighbors, next...)
		}
	}
}

// Build runs DBSCAN and summarizes each cluster. severities[i] belongs to points[i].
// Noise points are excluded. Zero clusters yields an empty, non-nil slice.
func Build(points []safety.Point, severities []int, params Params) []Cluster {
	labels := Labels(points, params)

	maxID := 0
	for _, l := range labels {
		if l > maxID {
			maxID = l
		}
	}

	type acc struct {
		sumLat, sumLon, sumSev float64
		n                      int
	}
	accs := make([]acc, maxID+1)
	for i, l := range labels {
		if l <= 0 {
			continue
		}
		a := &accs[l]
		a.sumLat += points[i].Lat
		a.sumLon += points[i].Lon
		a.sumSev += float64(severities[i])
		a.n++
	}

	clusters := make([]Cluster, 0, maxID)
	for id := 1; id <= maxID; id++ {
		a := accs[id]
		if a.n == 0 {
			continue
		}
		n := float64(a.n)
		clusters = append(clusters, Cluster{
			ID:           id,
			Centroid:     safety.Point{Lat: a.sumLat / n, Lon: a.sumLon / n},
			MeanSeverity: a.sumSev / n,
			Size:         a.n,
		})
	}
	return clusters
}

// Clusterer wraps DBSCAN with fixed parameters.
type Clusterer struct {
	params Params
}

// NewClusterer creates a Clusterer with the given parameters.
func NewClusterer(epsDeg float64, minSamples int) *Clusterer {
	return &Clusterer{params: Params{EpsDeg: epsDeg, MinSamples: minSamples}}
}

// Cluster groups the incidents of a dataset into hotspots.
func (c *Clusterer) Cluster(incidents []safety.Incident) []Cluster {
	points := make([]safety.Point, len(incidents))
	severities := make([]int, len(incidents))
	for i, inc := range incidents {
		points[i] = inc.Point()
		severities[i] = inc.Severity
	}
	return Build(points, severities, c.params)
}

// Params returns the clustering parameters.

// regionIndex answers eps-neighbourhood queries with an R-tree.
type regionIndex struct {
	points []safety.Point
	eps    float64
	tree   *rtreego.Rtree
}

type rtreeItem struct {
	rect  rtreego.Rect
	index int
}

func (item rtreeItem) Bounds() rtreego.Rect { return item.rect }

func newRegionIndex(points []safety.Point, eps float64) *regionIndex {
	tree := rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, p := range points {
		tree.Insert(rtreeItem{rect: rtreego.Point{p.Lat, p.Lon}.ToRect(eps), index: i})
	}
	return &regionIndex{points: points, eps: eps, tree: tree}
}

// regionQuery returns the indices within eps of points[i], itself included,
// sorted ascending.
func (ri *regionIndex) regionQuery(i int) []int {
	p := ri.points[i]
	candidates := ri.tree.SearchIntersect(rtreego.Point{p.Lat, p.Lon}.ToRect(ri.eps))

	eps2 := ri.eps * ri.eps
	neighbors := make([]int, 0, len(candidates))
	for _, obj := range candidates {
		item := obj.(rtreeItem)
		q := ri.points[item.index]
		dlat := q.Lat - p.Lat
		dlon := q.Lon - p.Lon
		if dlat*dlat+dlon*dlon <= eps2 {
			neighbors = append(neighbors, item.index)
		}
	}
	sort.Ints(neighbors)
	return neighbors
}
