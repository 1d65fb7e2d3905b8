package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/engine"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/osrm"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/store"
)

// RunReport describes one trained predictor.
type RunReport struct {
	RunID       string            `json:"run_id"`
	TrainedAt   time.Time         `json:"trained_at,omitempty"`
	DatasetSize int               `json:"dataset_size"`
	Diagnostics model.Diagnostics `json:"diagnostics"`
}

var errLegacyTraining = errors.New("training requires scoring.mode " + safety.ScoringHybrid)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the route predictor on the dataset and persist it",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := runTrain(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Training failed: %v", err)
		}
	},
}

// runTrain always retrains, ignoring any stored predictor, and writes the
// resulting RunReport to out.
func runTrain(ctx context.Context, cfg safety.Config, out io.Writer) error {
	if cfg.Scoring.Mode != safety.ScoringHybrid {
		return errLegacyTraining
	}
	ms, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open model store: %w", err)
	}
	defer ms.Close()

	svc := engine.NewService(cfg, dataset.NewCSVSource(), osrm.NewClient(cfg.OSRM), ms)
	if err := svc.ReloadDataset(ctx, cfg.Dataset.Path); err != nil {
		return err
	}
	snap := svc.Current()
	report := RunReport{
		RunID:       snap.RunID,
		TrainedAt:   snap.TrainedAt,
		DatasetSize: snap.Dataset.Len(),
		Diagnostics: snap.Diagnostics,
	}
	logrus.Infof("[train] run %s: accuracy %.2f%%, MAE %.3f", report.RunID, report.Diagnostics.AccuracyPct, report.Diagnostics.MAE)
	return writeJSON(out, report)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
