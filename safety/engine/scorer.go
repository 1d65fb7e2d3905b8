// Package engine ties the safety components together: it owns the immutable
// dataset snapshot, scores candidate routes and serves evaluation requests.
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/features"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/trace"
)

// Published score bounds, in score points.
const (
	minScore = 10.0
	maxScore = 100.0
)

// Scorer ranks candidate routes against a snapshot. Safe for concurrent use.
type Scorer struct {
	cfg   safety.ScoringConfig
	level trace.TraceLevel
}

// NewScorer creates a Scorer. level controls what the returned trace keeps.
func NewScorer(cfg safety.ScoringConfig, level trace.TraceLevel) *Scorer {
	return &Scorer{cfg: cfg, level: level}
}

// outcome is the per-candidate result slot of the extraction pass.
type outcome struct {
	summary *features.Summary
	err     error
}

// Evaluate scores candidates in two passes. The calibration pass fixes
// maxCrimesPerRoute = max(most crimes on any candidate, floor); the scoring
// pass blends rule and predicted scores with that constant. Results are
// sorted by published score, descending, ties in candidate order.
// Candidates that fail extraction are skipped; if all do, the error wraps
// safety.ErrNoEvaluableRoutes.
func (s *Scorer) Evaluate(ctx context.Context, snap *Snapshot, cands []safety.RouteCandidate, tc safety.TimeCategory) ([]safety.RouteEvaluation, *trace.EvaluationTrace, error) {
	et := trace.NewEvaluationTrace(uuid.New().String(), s.level)
	if snap == nil {
		return nil, et, safety.ErrNoDataset
	}
	if s.cfg.Mode == safety.ScoringHybrid && snap.Forest == nil {
		return nil, et, fmt.Errorf("%w: snapshot has no trained predictor", safety.ErrModelUnavailable)
	}

	outcomes, err := s.extract(ctx, snap, cands, tc)
	if err != nil {
		return nil, et, err
	}

	observed := 0
	for _, o := range outcomes {
		if o.err == nil && o.summary.TotalCrimes() > observed {
			observed = o.summary.TotalCrimes()
		}
	}
	maxCrimes := observed
	if maxCrimes < s.cfg.MinCrimesPerRoute {
		maxCrimes = s.cfg.MinCrimesPerRoute
	}
	et.RecordCalibration(trace.CalibrationRecord{
		ObservedMaxCrimes: observed,
		Floor:             s.cfg.MinCrimesPerRoute,
		MaxCrimesPerRoute: maxCrimes,
	})

	results := make([]safety.RouteEvaluation, 0, len(cands))
	for i, o := range outcomes {
		c := cands[i]
		if o.err != nil {
			logrus.Warnf("[engine] skipping %s: %v", c.Name, o.err)
			et.RecordCandidate(trace.CandidateRecord{RouteName: c.Name, Reason: safety.FailureReason(o.err)})
			continue
		}

		rec := trace.CandidateRecord{
			RouteName:   c.Name,
			DistanceKm:  o.summary.Vector[features.DistanceKm],
			Scored:      true,
			TotalCrimes: o.summary.TotalCrimes(),
		}
		var points float64
		if s.cfg.Mode == safety.ScoringLegacy {
			points = 100 * snap.Extractor.LegacyScore(o.summary)
			rec.RuleScore = points
		} else {
			rec.RuleScore = snap.Extractor.RuleScore(o.summary, maxCrimes)
			rec.PredictedScore = snap.Forest.Predict(o.summary.Vector)
			points = s.blend(rec.RuleScore, rec.PredictedScore)
		}
		rec.FinalScore = publish(points)
		et.RecordCandidate(rec)

		results = append(results, safety.RouteEvaluation{
			RouteName:       c.Name,
			TotalCrimes:     o.summary.TotalCrimes(),
			SafetyScore:     rec.FinalScore,
			TotalDistanceKm: rec.DistanceKm,
			NearbyCrimes:    o.summary.Matched,
			RouteCoords:     c.Points,
			TimeCategory:    tc,
		})
	}

	if len(results) == 0 {
		return nil, et, fmt.Errorf("%w: %d candidates, all skipped", safety.ErrNoEvaluableRoutes, len(cands))
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].SafetyScore > results[j].SafetyScore })
	return results, et, nil
}

// extract summarizes every candidate concurrently. Each goroutine writes only
// its own slot. Per-candidate failures are kept in the slot; only context
// cancellation aborts the pass.
func (s *Scorer) extract(ctx context.Context, snap *Snapshot, cands []safety.RouteCandidate, tc safety.TimeCategory) ([]outcome, error) {
	outcomes := make([]outcome, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Workers))
	for i := range cands {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := snap.Extractor.Summarize(cands[i].Points, tc)
			outcomes[i] = outcome{summary: sum, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// blend mixes rule and predicted scores with the configured weights.
func (s *Scorer) blend(rule, predicted float64) float64 {
	total := s.cfg.RuleWeight + s.cfg.ModelWeight
	return (s.cfg.RuleWeight*rule + s.cfg.ModelWeight*predicted) / total
}

// publish clamps score points to [10, 100] and converts them to a fraction
// rounded to two decimals.
func publish(points float64) float64 {
	if math.IsNaN(points) {
		points = minScore
	}
	clamped := math.Max(minScore, math.Min(maxScore, points))
	return math.Round(clamped) / 100
}
