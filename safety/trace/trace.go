package trace

// TraceLevel controls the verbosity of evaluation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures calibration, detours and candidate outcomes.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// EvaluationTrace collects decision records for one route evaluation request.
type EvaluationTrace struct {
	RequestID   string
	Level       TraceLevel
	Calibration CalibrationRecord
	Waypoints   []WaypointRecord
	Candidates  []CandidateRecord
}

// NewEvaluationTrace creates an EvaluationTrace ready for recording.
func NewEvaluationTrace(requestID string, level TraceLevel) *EvaluationTrace {
	return &EvaluationTrace{
		RequestID:  requestID,
		Level:      level,
		Waypoints:  make([]WaypointRecord, 0),
		Candidates: make([]CandidateRecord, 0),
	}
}

// Enabled reports whether records are being kept. Safe on a nil trace.
func (et *EvaluationTrace) Enabled() bool {
	return et != nil && et.Level == TraceLevelDecisions
}

// RecordCalibration stores the calibration outcome.
func (et *EvaluationTrace) RecordCalibration(record CalibrationRecord) {
	if !et.Enabled() {
		return
	}
	et.Calibration = record
}

// RecordWaypoint appends a detour attempt record.
func (et *EvaluationTrace) RecordWaypoint(record WaypointRecord) {
	if !et.Enabled() {
		return
	}
	et.Waypoints = append(et.Waypoints, record)
}

// RecordCandidate appends a candidate outcome record.
func (et *EvaluationTrace) RecordCandidate(record CandidateRecord) {
	if !et.Enabled() {
		return
	}
	et.Candidates = append(et.Candidates, record)
}
