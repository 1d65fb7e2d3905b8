package trace

// EvaluationSummary aggregates statistics from an EvaluationTrace.
type EvaluationSummary struct {
	TotalCandidates   int
	ScoredCount       int
	SkippedCount      int
	SkipReasons       map[string]int // reason → count of skipped candidates
	WaypointsTried    int
	WaypointsSkipped  int
	MaxCrimesPerRoute int
	MeanFinalScore    float64
	ScoreSpread       float64 // best minus worst published score
	BestRoute         string
}

// Summarize computes aggregate statistics from an EvaluationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(et *EvaluationTrace) *EvaluationSummary {
	summary := &EvaluationSummary{
		SkipReasons: make(map[string]int),
	}
	if et == nil {
		return summary
	}

	summary.MaxCrimesPerRoute = et.Calibration.MaxCrimesPerRoute
	summary.WaypointsTried = len(et.Waypoints)
	for _, w := range et.Waypoints {
		if !w.Produced {
			summary.WaypointsSkipped++
		}
	}

	summary.TotalCandidates = len(et.Candidates)
	total, best, worst := 0.0, 0.0, 0.0
	for _, c := range et.Candidates {
		if !c.Scored {
			summary.SkippedCount++
			summary.SkipReasons[c.Reason]++
			continue
		}
		if summary.ScoredCount == 0 || c.FinalScore > best {
			best = c.FinalScore
			summary.BestRoute = c.RouteName
		}
		if summary.ScoredCount == 0 || c.FinalScore < worst {
			worst = c.FinalScore
		}
		summary.ScoredCount++
		total += c.FinalScore
	}
	if summary.ScoredCount > 0 {
		summary.MeanFinalScore = total / float64(summary.ScoredCount)
		summary.ScoreSpread = best - worst
	}

	return summary
}
