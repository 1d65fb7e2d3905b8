// Package model implements the route predictor: a bagged regression forest
// trained on synthetic routes labelled with the rule-based score.
package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/features"
)

const leaf = -1

// Node is one node of a regression tree stored in a flat array.
// Feature == -1 marks a leaf whose prediction is Value.
type Node struct {
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes Left
	Left      int32
	Right     int32
	Value     float64
}

// Tree is a CART regression tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for v.
func (t *Tree) Predict(v features.Vector) float64 {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is the fitted predictor. Exported fields keep it gob-encodable.
type Forest struct {
	Trees []Tree
}

// Predict returns the mean of the tree predictions. The result is unclamped
// and always finite: leaves hold means of finite targets.
func (f *Forest) Predict(v features.Vector) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(v)
	}
	return sum / float64(len(f.Trees))
}

// Fit grows cfg.Trees trees on bootstrap resamples of (X, y).
// Per-tree seeds are drawn from rng up front so results are independent of
// scheduling.
func Fit(ctx context.Context, X []features.Vector, y []float64, cfg safety.ForestConfig, rng *rand.Rand) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit requires matching non-empty inputs, got %d vectors and %d targets", len(X), len(y))
	}
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	forest := &Forest{Trees: make([]Tree, cfg.Trees)}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range seeds {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, len(X))
			for j := range sample {
				sample[j] = r.Intn(len(X))
			}
			b := &treeBuilder{X: X, y: y, cfg: cfg}
			b.grow(sample, 0)
			forest.Trees[i] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

type treeBuilder struct {
	X     []features.Vector
	y     []float64
	cfg   safety.ForestConfig
	nodes []Node
}

// grow appends the subtree for sample and returns its node index.
func (b *treeBuilder) grow(sample []int, depth int) int32 {
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: b.mean(sample)})

	if depth >= b.cfg.MaxDepth || len(sample) < b.cfg.MinSamplesSplit {
		return idx
	}
	feature, threshold, ok := b.bestSplit(sample)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range sample {
		if b.X[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) mean(sample []int) float64 {
	sum := 0.0
	for _, s := range sample {
		sum += b.y[s]
	}
	return sum / float64(len(sample))
}

// bestSplit finds the (feature, threshold) minimizing the summed squared
// error of the two children. ok is false when no split reduces error.
func (b *treeBuilder) bestSplit(sample []int) (feature int, threshold float64, ok bool) {
	n := len(sample)
	total, totalSq := 0.0, 0.0
	for _, s := range sample {
		total += b.y[s]
		totalSq += b.y[s] * b.y[s]
	}
	bestSSE := totalSq - total*total/float64(n)
	const minGain = 1e-12

	order := make([]int, n)
	for f := 0; f < features.Dimension; f++ {
		copy(order, sample)
		sort.SliceStable(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			yi := b.y[order[i]]
			leftSum += yi
			leftSq += yi * yi

			lo, hi := b.X[order[i]][f], b.X[order[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(i+1), float64(n-i-1)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-minGain {
				bestSSE = sse
				feature = f
				threshold = splitPoint(lo, hi)
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// splitPoint places a threshold between two distinct sorted values. When the
// upper value is +Inf the lower value is used so that finite values go left
// and infinite ones go right.
func splitPoint(lo, hi float64) float64 {
	if math.IsInf(hi, 1) {
		return lo
	}
	mid := lo + (hi-lo)/2
	if mid >= hi {
		return lo
	}
	return mid
}
