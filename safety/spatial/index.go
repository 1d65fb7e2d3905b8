// Package spatial answers radius queries over incident coordinates.
package spatial

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// Index is a k-d tree over incident coordinates in the (lat, lon) degree plane.
// Immutable after construction and safe for concurrent queries.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds an index over points. Query results are indices into points.
func NewIndex(points []safety.Point) *Index {
	if len(points) == 0 {
		return &Index{}
	}
	entries := make(entryList, len(points))
	for i, p := range points {
		entries[i] = entry{lat: p.Lat, lon: p.Lon, idx: i}
	}
	return &Index{
		tree: kdtree.New(entries, false),
		size: len(points),
	}
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.size }

// QueryRadius returns the indices of all points within radiusKm of p, in
// ascending order. The radius is converted to degrees with safety.KmPerDegree
// and the boundary is inclusive. An empty result is valid.
func (ix *Index) QueryRadius(p safety.Point, radiusKm float64) []int {
	return ix.QueryRadiusDeg(p, radiusKm/safety.KmPerDegree)
}

// QueryRadiusDeg is QueryRadius with the radius given in degrees.
func (ix *Index) QueryRadiusDeg(p safety.Point, radiusDeg float64) []int {
	if ix.tree == nil || radiusDeg < 0 {
		return nil
	}
	// Distances in the tree are squared.
	keeper := kdtree.NewDistKeeper(radiusDeg * radiusDeg)
	ix.tree.NearestSet(keeper, entry{lat: p.Lat, lon: p.Lon, idx: -1})

	matches := make([]int, 0, len(keeper.Heap))
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue // sentinel left by an empty keeper
		}
		matches = append(matches, c.Comparable.(entry).idx)
	}
	sort.Ints(matches)
	return matches
}

// entry is one indexed coordinate; idx is -1 for query points.
type entry struct {
	lat, lon float64
	idx      int
}

// Compare returns the signed distance of e from c along dimension d.
func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(entry)
	if d == 0 {
		return e.lat - q.lat
	}
	return e.lon - q.lon
}

// Dims returns the number of dimensions.
func (e entry) Dims() int { return 2 }

// Distance returns the squared Euclidean distance in degrees.
func (e entry) Distance(c kdtree.Comparable) float64 {
	q := c.(entry)
	dlat := e.lat - q.lat
	dlon := e.lon - q.lon
	return dlat*dlat + dlon*dlon
}

// entryList implements kdtree.Interface.
type entryList []entry

func (l entryList) Index(i int) kdtree.Comparable         { return l[i] }
func (l entryList) Len() int                              { return len(l) }
func (l entryList) Slice(start, end int) kdtree.Interface { return l[start:end] }
func (l entryList) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{entryList: l, dim: d}, kdtree.MedianOfMedians(plane{entryList: l, dim: d}))
}

// plane sorts entries along one dimension for pivot selection.
type plane struct {
	entryList
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.entryList[i].lat < p.entryList[j].lat
	}
	return p.entryList[i].lon < p.entryList[j].lon
}

func (p plane) Swap(i, j int) { p.entryList[i], p.entryList[j] = p.entryList[j], p.entryList[i] }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.entryList = p.entryList[start:end]
	return p
}
