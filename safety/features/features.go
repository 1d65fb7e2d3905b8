// Package features turns a route into the fixed-length feature vector consumed
// by the route predictor, and computes the deterministic rule-based score.
package features

import (
	"fmt"
	"math"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/hotspot"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/spatial"
)

// Dimension is the length of a feature vector.
const Dimension = 10

// Feature positions within a Vector.
const (
	TotalCrimes = iota
	AvgSeverity
	MaxSeverity
	HighSeverityCount
	DistanceKm
	CategoryCount
	TimeEncoded
	NumHotspots
	HighSeverityHotspots
	MinDistanceToHotspotKm
)

// Names lists feature names in vector order.
var Names = [Dimension]string{
	"total_crimes", "avg_severity", "max_severity", "high_severity_count", "distance_km",
	"category_count", "time_encoded", "num_hotspots", "high_severity_hotspots",
	"min_distance_to_hotspot_km",
}

// Vector is the predictor input. Layout is fixed; see the index constants.
type Vector [Dimension]float64

// timeMultipliers scale the rule score by time of day. Unexported to prevent mutation.
var timeMultipliers = map[safety.TimeCategory]float64{
	safety.TimeMorning:   1.0,
	safety.TimeAfternoon: 1.0,
	safety.TimeEvening:   0.9,
	safety.TimeNight:     0.7,
}

// TimeMultiplier returns the rule-score multiplier for tc; unknown categories get 1.0.
func TimeMultiplier(tc safety.TimeCategory) float64 {
	if m, ok := timeMultipliers[tc]; ok {
		return m
	}
	return 1.0
}

// Environment is the read-only state features are computed against.
type Environment struct {
	Dataset  *dataset.Dataset
	Index    *spatial.Index
	Clusters []hotspot.Cluster
}

// Summary holds everything about a route that does not depend on the
// calibration constant. Score it with RuleScore.
type Summary struct {
	Vector        Vector
	TotalSeverity int
	Matched       []safety.MatchedIncident
	TimeCategory  safety.TimeCategory
}

// TotalCrimes returns the number of unique incidents matched to the route.
func (s *Summary) TotalCrimes() int { return len(s.Matched) }

// Extractor computes route features against a fixed Environment.
// Safe for concurrent use; it holds no mutable state.
type Extractor struct {
	env Environment
	cfg safety.FeatureConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(env Environment, cfg safety.FeatureConfig) *Extractor {
	return &Extractor{env: env, cfg: cfg}
}

// Summarize matches incidents and hotspots along route.
// An empty route fails with safety.ErrFeatureExtraction.
func (e *Extractor) Summarize(route []safety.Point, tc safety.TimeCategory) (*Summary, error) {
	if len(route) == 0 {
		return nil, fmt.Errorf("%w: empty route", safety.ErrFeatureExtraction)
	}
	for i, p := range route {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
			return nil, fmt.Errorf("%w: point %d is not a number", safety.ErrFeatureExtraction, i)
		}
	}

	s := &Summary{TimeCategory: tc, Matched: []safety.MatchedIncident{}}
	maxSev := e.maxSeverity()
	highCut := float64(maxSev) * e.cfg.HighSeverityRatio

	if ds := e.env.Dataset; ds != nil && e.env.Index != nil {
		seen := make(map[string]struct{})
		categories := make(map[string]struct{})
		highest, high := 0, 0
		for _, p := range route {
			for _, idx := range e.env.Index.QueryRadius(p, e.cfg.RadiusKm) {
				inc := ds.Incidents[idx]
				if _, dup := seen[inc.ID]; dup {
					continue
				}
				seen[inc.ID] = struct{}{}
				categories[inc.Category] = struct{}{}
				s.Matched = append(s.Matched, safety.MatchedIncident{
					CrimeID:  inc.ID,
					Category: inc.Category,
					Lat:      inc.Lat,
					Lon:      inc.Lon,
					Severity: inc.Severity,
				})
				s.TotalSeverity += inc.Severity
				if inc.Severity > highest {
					highest = inc.Severity
				}
				if float64(inc.Severity) >= highCut {
					high++
				}
			}
		}
		s.Vector[MaxSeverity] = float64(highest)
		s.Vector[HighSeverityCount] = float64(high)
		s.Vector[CategoryCount] = float64(len(categories))
	}

	n := len(s.Matched)
	s.Vector[TotalCrimes] = float64(n)
	if n > 0 {
		s.Vector[AvgSeverity] = float64(s.TotalSeverity) / float64(n)
	}
	s.Vector[DistanceKm] = safety.PathLengthKm(route)
	s.Vector[TimeEncoded] = tc.Encoded()

	hits, highHits, minDeg := e.hotspotProximity(route, highCut)
	s.Vector[NumHotspots] = float64(hits)
	s.Vector[HighSeverityHotspots] = float64(highHits)
	s.Vector[MinDistanceToHotspotKm] = minDeg * safety.KmPerDegree
	return s, nil
}

// hotspotProximity counts route points close to any centroid and close
// high-severity clusters, and finds the minimum point-to-centroid distance in
// degrees (+Inf with no clusters).
func (e *Extractor) hotspotProximity(route []safety.Point, highCut float64) (hits, highHits int, minDeg float64) {
	minDeg = math.Inf(1)
	if len(e.env.Clusters) == 0 {
		return 0, 0, minDeg
	}
	for _, p := range route {
		near := false
		for _, c := range e.env.Clusters {
			d := math.Hypot(c.Centroid.Lat-p.Lat, c.Centroid.Lon-p.Lon)
			if d < minDeg {
				minDeg = d
			}
			if d < e.cfg.HotspotProximityDeg {
				near = true
				if c.MeanSeverity >= highCut {
					highHits++
				}
			}
		}
		if near {
			hits++
		}
	}
	return hits, highHits, minDeg
}

func (e *Extractor) maxSeverity() int {
	if e.env.Dataset == nil {
		return dataset.DefaultMaxSeverity
	}
	return e.env.Dataset.MaxSeverity
}

// RuleScore computes the deterministic penalty score in [MinRuleScore, 100]
// for a summary, normalized by maxCrimesPerRoute.
func (e *Extractor) RuleScore(s *Summary, maxCrimesPerRoute int) float64 {
	if maxCrimesPerRoute < 1 {
		maxCrimesPerRoute = 1
	}
	maxSev := float64(e.maxSeverity())
	mc := float64(maxCrimesPerRoute)

	severityPenalty := 0.0
	if s.TotalCrimes() > 0 {
		severityPenalty = float64(s.TotalSeverity) / (mc * maxSev)
	}
	highPenalty := s.Vector[HighSeverityCount] / mc * e.cfg.HighSeverityWeight
	hotspotPenalty := s.Vector[HighSeverityHotspots] * e.cfg.HotspotPenalty

	score := 100 * (1 - severityPenalty - highPenalty - hotspotPenalty) * TimeMultiplier(s.TimeCategory)
	return math.Max(e.cfg.MinRuleScore, score)
}

// Extract summarizes route and scores it in one step.
func (e *Extractor) Extract(route []safety.Point, tc safety.TimeCategory, maxCrimesPerRoute int) (Vector, float64, []safety.MatchedIncident, error) {
	s, err := e.Summarize(route, tc)
	if err != nil {
		return Vector{}, 0, nil, err
	}
	return s.Vector, e.RuleScore(s, maxCrimesPerRoute), s.Matched, nil
}
