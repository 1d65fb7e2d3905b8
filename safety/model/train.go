package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/features"
)

// Sample is one labelled synthetic route.
type Sample struct {
	X features.Vector
	Y float64
}

// Synthesize generates n labelled routes. Geometry and noise are drawn from
// rng sequentially; feature extraction runs in parallel. Labels are the rule
// score normalized by cfg.MaxCrimesPerRoute, perturbed by uniform noise of
// ±noise×score and clamped to [10, 100]. Routes that fail
// extraction are dropped and logged.
func Synthesize(ctx context.Context, ext *features.Extractor, cfg safety.TrainingConfig, n int, noise float64, rng *rand.Rand) ([]Sample, error) {
	type draft struct {
		route []safety.Point
		tc    safety.TimeCategory
		u     float64 // noise draw in [-1, 1)
	}
	drafts := make([]draft, n)
	b := cfg.CityBounds
	for i := range drafts {
		lat := b.MinLat + rng.Float64()*(b.MaxLat-b.MinLat)
		lon := b.MinLon + rng.Float64()*(b.MaxLon-b.MinLon)
		route := make([]safety.Point, cfg.PointsPerRoute)
		for j := range route {
			route[j] = safety.Point{
				Lat: lat + (rng.Float64()*2-1)*cfg.JitterDeg,
				Lon: lon + (rng.Float64()*2-1)*cfg.JitterDeg,
			}
		}
		drafts[i] = draft{
			route: route,
			tc:    safety.KnownTimeCategories[rng.Intn(len(safety.KnownTimeCategories))],
			u:     rng.Float64()*2 - 1,
		}
	}

	samples := make([]Sample, n)
	usable := make([]bool, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range drafts {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := drafts[i]
			s, err := ext.Summarize(d.route, d.tc)
			if err != nil {
				logrus.Warnf("[model] dropping synthetic route %d: %v", i, err)
				return nil
			}
			score := ext.RuleScore(s, cfg.MaxCrimesPerRoute)
			samples[i] = Sample{X: s.Vector, Y: clamp(score+d.u*noise*score, ruleFloor, 100)}
			usable[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := samples[:0]
	for i, ok := range usable {
		if ok {
			out = append(out, samples[i])
		}
	}
	return out, nil
}

// Lower clamp of synthetic labels.
const ruleFloor = 10

// Train generates the training and held-out sets, fits the forest and
// evaluates it. Fewer than cfg.MinSamples usable training routes fails with
// safety.ErrModelUnavailable.
func Train(ctx context.Context, ext *features.Extractor, cfg safety.TrainingConfig, rng *safety.PartitionedRNG) (*Forest, Diagnostics, error) {
	train, err := Synthesize(ctx, ext, cfg, cfg.Samples, cfg.TrainNoise, rng.ForSubsystem(safety.SubsystemTraining))
	if err != nil {
		return nil, Diagnostics{}, err
	}
	if len(train) < cfg.MinSamples {
		return nil, Diagnostics{}, fmt.Errorf("%w: only %d usable training routes, need %d",
			safety.ErrModelUnavailable, len(train), cfg.MinSamples)
	}
	holdout, err := Synthesize(ctx, ext, cfg, cfg.HoldoutSamples, cfg.HoldoutNoise, rng.ForSubsystem(safety.SubsystemHoldout))
	if err != nil {
		return nil, Diagnostics{}, err
	}

	X, y := split(train)
	forest, err := Fit(ctx, X, y, cfg.Forest, rng.ForSubsystem(safety.SubsystemForest))
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("%w: %v", safety.ErrModelUnavailable, err)
	}
	logrus.Infof("[model] trained %d trees on %d routes", len(forest.Trees), len(train))

	diag := Evaluate(forest, holdout, cfg.Tolerance)
	diag.TrainSamples = len(train)
	logrus.Infof("[model] accuracy within ±%.1f points: %.2f%%, MAE %.2f, RMSE %.2f",
		diag.Tolerance, diag.AccuracyPct, diag.MAE, diag.RMSE)
	return forest, diag, nil
}

func split(samples []Sample) ([]features.Vector, []float64) {
	X := make([]features.Vector, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		X[i], y[i] = s.X, s.Y
	}
	return X, y
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
