package engine

import (
	"time"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/features"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/hotspot"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/spatial"
)

// Snapshot is the immutable state a request is evaluated against. A reload
// builds a new Snapshot and publishes it atomically; readers never observe a
// partially built one.
type Snapshot struct {
	Dataset   *dataset.Dataset
	Index     *spatial.Index
	Clusters  []hotspot.Cluster
	Extractor *features.Extractor

	// Forest is nil in legacy scoring mode.
	Forest         *model.Forest
	Diagnostics    model.Diagnostics
	HasDiagnostics bool
	RunID          string
	TrainedAt      time.Time // when the attached predictor was trained

	LoadedAt time.Time
}

// buildSnapshot derives the index, hotspots and extractor for incidents.
// The predictor is attached separately.
func buildSnapshot(incidents []safety.Incident, cfg safety.Config) (*Snapshot, error) {
	ds, err := dataset.New(incidents)
	if err != nil {
		return nil, err
	}
	idx := spatial.NewIndex(ds.Points)
	clusters := hotspot.NewClusterer(cfg.Hotspot.EpsDeg, cfg.Hotspot.MinSamples).Cluster(ds.Incidents)

	return &Snapshot{
		Dataset:  ds,
		Index:    idx,
		Clusters: clusters,
		Extractor: features.NewExtractor(features.Environment{
			Dataset:  ds,
			Index:    idx,
			Clusters: clusters,
		}, cfg.Features),
		LoadedAt: time.Now(),
	}, nil
}
