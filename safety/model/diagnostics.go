package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Diagnostics summarizes predictor quality on the held-out set.
type Diagnostics struct {
	AccuracyPct    float64 `json:"custom_accuracy_percentage" yaml:"custom_accuracy_percentage"` // share within ±Tolerance
	MAE            float64 `json:"mae" yaml:"mae"`
	RMSE           float64 `json:"rmse" yaml:"rmse"`
	R2             float64 `json:"r2" yaml:"r2"`
	Tolerance      float64 `json:"tolerance" yaml:"tolerance"`
	TrainSamples   int     `json:"train_samples" yaml:"train_samples"`
	HoldoutSamples int     `json:"holdout_samples" yaml:"holdout_samples"`
}

// Evaluate scores forest against held-out samples.
func Evaluate(forest *Forest, holdout []Sample, tolerance float64) Diagnostics {
	d := Diagnostics{Tolerance: tolerance, HoldoutSamples: len(holdout)}
	if len(holdout) == 0 {
		return d
	}

	pred := make([]float64, len(holdout))
	truth := make([]float64, len(holdout))
	absErr := make([]float64, len(holdout))
	sqErr := make([]float64, len(holdout))
	within := 0
	for i, s := range holdout {
		pred[i] = forest.Predict(s.X)
		truth[i] = s.Y
		e := pred[i] - s.Y
		absErr[i] = math.Abs(e)
		sqErr[i] = e * e
		if absErr[i] <= tolerance {
			within++
		}
	}

	d.AccuracyPct = 100 * float64(within) / float64(len(holdout))
	d.MAE = stat.Mean(absErr, nil)
	d.RMSE = math.Sqrt(stat.Mean(sqErr, nil))
	if stat.Variance(truth, nil) > 0 {
		d.R2 = stat.RSquaredFrom(pred, truth, nil)
	}
	return d
}
