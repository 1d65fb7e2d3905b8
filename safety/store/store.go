// Package store persists trained route predictors so later processes can
// reuse them instead of retraining.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("model snapshot not found")

// Snapshot is a persisted predictor together with its training diagnostics.
type Snapshot struct {
	RunID       string
	TrainedAt   time.Time
	DatasetSize int
	Forest      *model.Forest
	Diagnostics model.Diagnostics
}

// NewSnapshot stamps a fresh run ID and training time.
func NewSnapshot(forest *model.Forest, diag model.Diagnostics, datasetSize int) *Snapshot {
	return &Snapshot{
		RunID:       uuid.New().String(),
		TrainedAt:   time.Now().UTC(),
		DatasetSize: datasetSize,
		Forest:      forest,
		Diagnostics: diag,
	}
}

// ModelStore saves and loads the most recent predictor snapshot.
type ModelStore interface {
	Save(ctx context.Context, s *Snapshot) error
	// Load returns the latest snapshot, or ErrNotFound.
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(cfg safety.StoreConfig) (ModelStore, error) {
	switch cfg.Driver {
	case safety.StoreFile:
		return NewFileStore(cfg.Path), nil
	case safety.StoreSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
