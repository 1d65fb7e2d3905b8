package safety

import "errors"

// Failure taxonomy. Errors returned by the engine wrap one of these sentinels;
// callers test with errors.Is.
var (
	// ErrDataValidation marks a dataset with missing or malformed columns.
	// Fatal to a reload; the previously active snapshot stays servable.
	ErrDataValidation = errors.New("dataset validation failed")

	// ErrProviderUnavailable marks a routing provider failure. Recoverable per
	// waypoint, fatal to a request only when no route at all was obtained.
	ErrProviderUnavailable = errors.New("routing provider unavailable")

	// ErrFeatureExtraction marks a single route that could not be featurized.
	ErrFeatureExtraction = errors.New("feature extraction failed")

	// ErrModelUnavailable marks a missing predictor whose training also failed.
	ErrModelUnavailable = errors.New("route predictor unavailable")

	// ErrNoEvaluableRoutes is returned when every candidate in a batch was skipped.
	ErrNoEvaluableRoutes = errors.New("no evaluable routes")

	// ErrNoDataset is returned when evaluation is requested before any dataset load.
	ErrNoDataset = errors.New("no dataset loaded")
)

// failureReasons maps sentinels to stable tags. Unexported to prevent mutation.
var failureReasons = []struct {
	err    error
	reason string
}{
	{ErrDataValidation, "data_validation"},
	{ErrProviderUnavailable, "provider_unavailable"},
	{ErrFeatureExtraction, "feature_extraction"},
	{ErrModelUnavailable, "model_unavailable"},
	{ErrNoEvaluableRoutes, "no_evaluable_routes"},
	{ErrNoDataset, "no_dataset"},
}

// FailureReason returns the stable tag for err, "" for nil and "internal" for
// errors outside the taxonomy.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	for _, fr := range failureReasons {
		if errors.Is(err, fr.err) {
			return fr.reason
		}
	}
	return "internal"
}
