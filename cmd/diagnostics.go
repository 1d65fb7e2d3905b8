package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/store"
)

var historyLimit int // Past runs to list; sqlite store only

// historyStore is implemented by stores that keep every run.
type historyStore interface {
	History(ctx context.Context, limit int) ([]store.RunSummary, error)
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print the held-out metrics of the persisted predictor",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := applyEnv(&cfg); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if cmd.Flags().Changed("model-store") {
			cfg.Store.Path = storePath
		}
		if cmd.Flags().Changed("store-driver") {
			cfg.Store.Driver = storeDriver
		}
		if err := runDiagnostics(cmd.Context(), cfg.Store, historyLimit, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Diagnostics unavailable: %v", err)
		}
	},
}

// runDiagnostics reads the store without touching the dataset. With
// limit > 0 and a history-capable store, every listed run is reported.
func runDiagnostics(ctx context.Context, cfg safety.StoreConfig, limit int, out io.Writer) error {
	ms, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open model store: %w", err)
	}
	defer ms.Close()

	if hs, ok := ms.(historyStore); ok && limit > 0 {
		runs, err := hs.History(ctx, limit)
		if err != nil {
			return err
		}
		reports := make([]RunReport, 0, len(runs))
		for _, r := range runs {
			reports = append(reports, RunReport{
				RunID:       r.RunID,
				TrainedAt:   r.TrainedAt,
				DatasetSize: r.DatasetSize,
				Diagnostics: r.Diagnostics,
			})
		}
		return writeJSON(out, reports)
	}
	if limit > 0 {
		logrus.Warnf("Store driver %s keeps only the latest run; ignoring --history", cfg.Driver)
	}

	snap, err := ms.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: no trained predictor in %s", safety.ErrModelUnavailable, cfg.Path)
	}
	if err != nil {
		return err
	}
	return writeJSON(out, RunReport{
		RunID:       snap.RunID,
		TrainedAt:   snap.TrainedAt,
		DatasetSize: snap.DatasetSize,
		Diagnostics: snap.Diagnostics,
	})
}

func init() {
	diagnosticsCmd.Flags().IntVar(&historyLimit, "history", 0, "List up to N past runs (sqlite store only)")
}
