package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/candidates"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/store"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/trace"
)

// ErrPersistFailed is returned by ReloadDataset when the retrained predictor
// could not be saved to the model store.
var ErrPersistFailed = errors.New("failed to persist predictor")

// Service is the engine's request-facing surface. Evaluations run
// concurrently against the current snapshot; reloads are serialized and
// publish a new snapshot atomically.
type Service struct {
	cfg     safety.Config
	source  dataset.Source
	builder *candidates.Builder
	scorer  *Scorer
	store   store.ModelStore // nil disables persistence

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewService wires a Service. No dataset is loaded until Bootstrap or
// ReloadDataset succeeds.
func NewService(cfg safety.Config, source dataset.Source, provider candidates.RoutingProvider, ms store.ModelStore) *Service {
	return &Service{
		cfg:     cfg,
		source:  source,
		builder: candidates.NewBuilder(provider, cfg.Candidates),
		scorer:  NewScorer(cfg.Scoring, trace.TraceLevelDecisions),
		store:   ms,
	}
}

// SetTraceLevel selects what EvaluateRoutesTraced records. The default is
// trace.TraceLevelDecisions. Call it before the service starts serving.
func (s *Service) SetTraceLevel(level trace.TraceLevel) {
	s.scorer = NewScorer(s.cfg.Scoring, level)
}

// Bootstrap loads the dataset at path and attaches a predictor, reusing the
// persisted one when the store has it and training a new one otherwise.
func (s *Service) Bootstrap(ctx context.Context, path string) error {
	return s.load(ctx, path, false)
}

// ReloadDataset replaces the dataset, retrains the predictor and persists it.
// On any failure, a failed save included, the previously active snapshot stays
// in service.
func (s *Service) ReloadDataset(ctx context.Context, path string) error {
	return s.load(ctx, path, true)
}

func (s *Service) load(ctx context.Context, path string, retrain bool) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	incidents, err := s.source.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", path, err)
	}
	if b := s.cfg.Dataset.Bounds; b != nil {
		before := len(incidents)
		incidents = dataset.FilterBounds(incidents, *b)
		logrus.Infof("[engine] bounds filter kept %d of %d incidents", len(incidents), before)
	}

	snap, err := buildSnapshot(incidents, s.cfg)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	logrus.Infof("[engine] loaded %d incidents, %d hotspots", snap.Dataset.Len(), len(snap.Clusters))

	if s.cfg.Scoring.Mode == safety.ScoringHybrid {
		if err := s.attachPredictor(ctx, snap, retrain); err != nil {
			return err
		}
	}

	s.current.Store(snap)
	return nil
}

// attachPredictor sets snap's forest from the store, or trains and persists one.
func (s *Service) attachPredictor(ctx context.Context, snap *Snapshot, retrain bool) error {
	if !retrain && s.store != nil {
		persisted, err := s.store.Load(ctx)
		switch {
		case err == nil:
			snap.Forest = persisted.Forest
			snap.Diagnostics = persisted.Diagnostics
			snap.HasDiagnostics = true
			snap.RunID = persisted.RunID
			snap.TrainedAt = persisted.TrainedAt
			logrus.Infof("[engine] reusing predictor %s trained %s", persisted.RunID, persisted.TrainedAt.Format(time.RFC3339))
			return nil
		case errors.Is(err, store.ErrNotFound):
			logrus.Infof("[engine] no persisted predictor, training")
		default:
			logrus.Warnf("[engine] persisted predictor unusable, retraining: %v", err)
		}
	}

	rng := safety.NewPartitionedRNG(safety.NewRunKey(s.cfg.Training.Seed))
	forest, diag, err := model.Train(ctx, snap.Extractor, s.cfg.Training, rng)
	if err != nil {
		return fmt.Errorf("train predictor: %w", err)
	}
	persisted := store.NewSnapshot(forest, diag, snap.Dataset.Len())
	snap.Forest = forest
	snap.Diagnostics = diag
	snap.HasDiagnostics = true
	snap.RunID = persisted.RunID
	snap.TrainedAt = persisted.TrainedAt

	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, persisted); err != nil {
		if retrain {
			return fmt.Errorf("%w: predictor %s: %v", ErrPersistFailed, persisted.RunID, err)
		}
		// Bootstrap still serves the freshly trained predictor.
		logrus.Warnf("[engine] failed to persist predictor %s: %v", persisted.RunID, err)
	}
	return nil
}

// EvaluateRoutes ranks candidate routes from src to dst for the given time of
// day, safest first.
func (s *Service) EvaluateRoutes(ctx context.Context, src, dst safety.Point, tc safety.TimeCategory) ([]safety.RouteEvaluation, error) {
	results, _, err := s.EvaluateRoutesTraced(ctx, src, dst, tc)
	return results, err
}

// EvaluateRoutesTraced is EvaluateRoutes that also returns the decision trace.
// The trace is non-nil whenever candidate generation succeeded.
func (s *Service) EvaluateRoutesTraced(ctx context.Context, src, dst safety.Point, tc safety.TimeCategory) ([]safety.RouteEvaluation, *trace.EvaluationTrace, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, nil, safety.ErrNoDataset
	}

	built, err := s.builder.Build(ctx, src, dst)
	if err != nil {
		return nil, nil, err
	}

	results, et, err := s.scorer.Evaluate(ctx, snap, built.Routes(), tc)
	for _, d := range built.Detours {
		et.RecordWaypoint(trace.WaypointRecord{
			Lat:      d.Waypoint.Lat,
			Lon:      d.Waypoint.Lon,
			Produced: !d.Skipped(),
			Reason:   d.Skip,
		})
	}
	if err != nil {
		return nil, et, err
	}
	logrus.Debugf("[engine] request %s ranked %d routes", et.RequestID, len(results))
	return results, et, nil
}

// TrainingDiagnostics returns the diagnostics of the active predictor, if any.
func (s *Service) TrainingDiagnostics() (model.Diagnostics, bool) {
	snap := s.current.Load()
	if snap == nil || !snap.HasDiagnostics {
		return model.Diagnostics{}, false
	}
	return snap.Diagnostics, true
}

// Current returns the active snapshot, or nil before the first load.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}
