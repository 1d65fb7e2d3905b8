// Package trace records the per-request decisions of a route evaluation:
// calibration, waypoint detours and per-candidate scoring outcomes.
// This package has no dependencies on the engine; it stores pure data types.
package trace

// CalibrationRecord captures the normalization constant fixed before scoring.
type CalibrationRecord struct {
	ObservedMaxCrimes int
	Floor             int
	MaxCrimesPerRoute int
}

// WaypointRecord captures one detour attempt.
type WaypointRecord struct {
	Lat      float64
	Lon      float64
	Produced bool
	Reason   string // skip reason when !Produced
}

// CandidateRecord captures the scoring outcome of a single candidate route.
type CandidateRecord struct {
	RouteName      string
	DistanceKm     float64
	Scored         bool
	Reason         string // skip reason when !Scored
	TotalCrimes    int
	RuleScore      float64
	PredictedScore float64
	FinalScore     float64 // published score in [0.10, 1.00]
}
