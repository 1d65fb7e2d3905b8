package safety

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Bounds is a latitude/longitude rectangle in decimal degrees.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Contains reports whether p lies inside b (inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Validate checks that b is a well-formed latitude/longitude rectangle.
func (b Bounds) Validate() error {
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("min_lat must be <= max_lat, got %f > %f", b.MinLat, b.MaxLat)
	}
	if b.MinLon > b.MaxLon {
		return fmt.Errorf("min_lon must be <= max_lon, got %f > %f", b.MinLon, b.MaxLon)
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude must be within [-90, 90]")
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude must be within [-180, 180]")
	}
	return nil
}

// Config is the top-level engine configuration.
// Loaded from YAML with strict field checking; zero sections take DefaultConfig values.
type Config struct {
	Dataset    DatasetConfig   `yaml:"dataset"`
	Hotspot    HotspotConfig   `yaml:"hotspot"`
	Features   FeatureConfig   `yaml:"features"`
	Candidates CandidateConfig `yaml:"candidates"`
	Scoring    ScoringConfig   `yaml:"scoring"`
	Training   TrainingConfig  `yaml:"training"`
	Store      StoreConfig     `yaml:"store"`
	OSRM       OSRMConfig      `yaml:"osrm"`
}

// DatasetConfig locates the incident dataset.
type DatasetConfig struct {
	Path   string  `yaml:"path"`
	Bounds *Bounds `yaml:"bounds,omitempty"` // optional pre-filter; nil keeps every incident
}

// HotspotConfig groups DBSCAN parameters.
type HotspotConfig struct {
	EpsDeg     float64 `yaml:"eps_deg"`     // neighbourhood radius in degrees (0.001 ≈ 100m)
	MinSamples int     `yaml:"min_samples"` // neighbourhood size, self included, for a core point
}

// FeatureConfig groups feature-extraction and rule-score constants.
type FeatureConfig struct {
	RadiusKm            float64 `yaml:"radius_km"`             // incident match radius per route point
	HighSeverityRatio   float64 `yaml:"high_severity_ratio"`   // fraction of dataset max severity
	HotspotProximityDeg float64 `yaml:"hotspot_proximity_deg"` // route point to centroid distance
	HighSeverityWeight  float64 `yaml:"high_severity_weight"`  // weight of the high-severity penalty
	HotspotPenalty      float64 `yaml:"hotspot_penalty"`       // penalty per high-severity hotspot hit
	MinRuleScore        float64 `yaml:"min_rule_score"`        // floor of the rule-based score
}

// CandidateConfig groups route candidate generation parameters.
type CandidateConfig struct {
	MaxAlternatives  int     `yaml:"max_alternatives"`   // alternatives requested from the provider
	DetourThreshold  int     `yaml:"detour_threshold"`   // synthesize detours below this many routes
	Waypoints        int     `yaml:"waypoints"`          // detour waypoints tried per request
	PaddingDeg       float64 `yaml:"padding_deg"`        // bounding box padding for waypoints
	MaxDistanceRatio float64 `yaml:"max_distance_ratio"` // relative to the shortest candidate
	MaxRoutes        int     `yaml:"max_routes"`
	Seed             int64   `yaml:"seed"`
}

// Scoring modes.
const (
	ScoringHybrid = "hybrid"
	ScoringLegacy = "legacy"
)

// validScoringModes maps accepted scoring.mode values. Unexported to prevent mutation.
var validScoringModes = map[string]bool{
	ScoringHybrid: true,
	ScoringLegacy: true,
}

// ScoringConfig groups the hybrid blend and calibration parameters.
type ScoringConfig struct {
	Mode              string  `yaml:"mode"`
	RuleWeight        float64 `yaml:"rule_weight"`
	ModelWeight       float64 `yaml:"model_weight"`
	MinCrimesPerRoute int     `yaml:"min_crimes_per_route"` // calibration floor
	Workers           int     `yaml:"workers"`              // concurrent candidate extraction
}

// ForestConfig groups random-forest hyperparameters.
type ForestConfig struct {
	Trees           int `yaml:"trees"`
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
}

// TrainingConfig groups synthetic training-set generation parameters.
type TrainingConfig struct {
	Seed              int64        `yaml:"seed"`
	Samples           int          `yaml:"samples"`
	HoldoutSamples    int          `yaml:"holdout_samples"`
	MinSamples        int          `yaml:"min_samples"` // fewer usable samples fails training
	PointsPerRoute    int          `yaml:"points_per_route"`
	JitterDeg         float64      `yaml:"jitter_deg"`
	CityBounds        Bounds       `yaml:"city_bounds"`
	TrainNoise        float64      `yaml:"train_noise"`   // label noise as a fraction of the score
	HoldoutNoise      float64      `yaml:"holdout_noise"` // label noise for the held-out set
	MaxCrimesPerRoute int          `yaml:"max_crimes_per_route"`
	Tolerance         float64      `yaml:"tolerance"` // accuracy-within-tolerance, in score points
	Forest            ForestConfig `yaml:"forest"`
}

// Store drivers.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// StoreConfig selects where the trained predictor is persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// OSRMConfig configures the OSRM routing provider.
type OSRMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Profile        string `yaml:"profile"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Hotspot: HotspotConfig{
			EpsDeg:     0.001,
			MinSamples: 5,
		},
		Features: FeatureConfig{
			RadiusKm:            0.1,
			HighSeverityRatio:   0.6,
			HotspotProximityDeg: 0.001,
			HighSeverityWeight:  0.5,
			HotspotPenalty:      0.05,
			MinRuleScore:        10,
		},
		Candidates: CandidateConfig{
			MaxAlternatives:  3,
			DetourThreshold:  6,
			Waypoints:        3,
			PaddingDeg:       0.05,
			MaxDistanceRatio: 1.5,
			MaxRoutes:        7,
			Seed:             42,
		},
		Scoring: ScoringConfig{
			Mode:              ScoringHybrid,
			RuleWeight:        0.5,
			ModelWeight:       0.5,
			MinCrimesPerRoute: 100,
			Workers:           4,
		},
		Training: TrainingConfig{
			Seed:           42,
			Samples:        2000,
			HoldoutSamples: 200,
			MinSamples:     50,
			PointsPerRoute: 15,
			JitterDeg:      0.05,
			CityBounds: Bounds{
				MinLat: 28.4, MaxLat: 28.8,
				MinLon: 77.0, MaxLon: 77.4,
			},
			TrainNoise:        0.02,
			HoldoutNoise:      0.05,
			MaxCrimesPerRoute: 1000,
			Tolerance:         4.0,
			Forest: ForestConfig{
				Trees:           75,
				MaxDepth:        8,
				MinSamplesSplit: 10,
			},
		},
		Store: StoreConfig{
			Driver: StoreFile,
			Path:   "safe_route_model.gob",
		},
		OSRM: OSRMConfig{
			BaseURL:        "http://router.project-osrm.org",
			Profile:        "driving",
			TimeoutSeconds: 10,
		},
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Dataset.Bounds != nil {
		if err := c.Dataset.Bounds.Validate(); err != nil {
			return fmt.Errorf("dataset.bounds: %w", err)
		}
	}
	if err := validateFinitePositive("hotspot.eps_deg", c.Hotspot.EpsDeg); err != nil {
		return err
	}
	if c.Hotspot.MinSamples < 1 {
		return fmt.Errorf("hotspot.min_samples must be >= 1, got %d", c.Hotspot.MinSamples)
	}
	if err := validateFinitePositive("features.radius_km", c.Features.RadiusKm); err != nil {
		return err
	}
	if err := validateFinitePositive("features.hotspot_proximity_deg", c.Features.HotspotProximityDeg); err != nil {
		return err
	}
	if c.Features.HighSeverityRatio <= 0 || c.Features.HighSeverityRatio > 1 {
		return fmt.Errorf("features.high_severity_ratio must be in (0, 1], got %f", c.Features.HighSeverityRatio)
	}
	if c.Features.MinRuleScore < 0 || c.Features.MinRuleScore > 100 {
		return fmt.Errorf("features.min_rule_score must be in [0, 100], got %f", c.Features.MinRuleScore)
	}
	if c.Candidates.MaxAlternatives < 1 {
		return fmt.Errorf("candidates.max_alternatives must be >= 1, got %d", c.Candidates.MaxAlternatives)
	}
	if c.Candidates.Waypoints < 0 {
		return fmt.Errorf("candidates.waypoints must be non-negative, got %d", c.Candidates.Waypoints)
	}
	if c.Candidates.MaxRoutes < 1 {
		return fmt.Errorf("candidates.max_routes must be >= 1, got %d", c.Candidates.MaxRoutes)
	}
	if c.Candidates.MaxDistanceRatio < 1 {
		return fmt.Errorf("candidates.max_distance_ratio must be >= 1, got %f", c.Candidates.MaxDistanceRatio)
	}
	if !validScoringModes[c.Scoring.Mode] {
		return fmt.Errorf("unknown scoring.mode %q; valid: %s", c.Scoring.Mode, strings.Join(validNamesList(validScoringModes), ", "))
	}
	if c.Scoring.RuleWeight < 0 || c.Scoring.ModelWeight < 0 || c.Scoring.RuleWeight+c.Scoring.ModelWeight <= 0 {
		return fmt.Errorf("scoring weights must be non-negative with a positive sum, got rule=%f model=%f",
			c.Scoring.RuleWeight, c.Scoring.ModelWeight)
	}
	if c.Scoring.MinCrimesPerRoute < 1 {
		return fmt.Errorf("scoring.min_crimes_per_route must be >= 1, got %d", c.Scoring.MinCrimesPerRoute)
	}
	if c.Scoring.Workers < 1 {
		return fmt.Errorf("scoring.workers must be >= 1, got %d", c.Scoring.Workers)
	}
	if err := c.Training.validate(); err != nil {
		return err
	}
	if c.Store.Driver != StoreFile && c.Store.Driver != StoreSQLite {
		return fmt.Errorf("unknown store.driver %q; valid: %s, %s", c.Store.Driver, StoreFile, StoreSQLite)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}

func (t *TrainingConfig) validate() error {
	if t.Samples < 1 || t.HoldoutSamples < 1 {
		return fmt.Errorf("training.samples and training.holdout_samples must be >= 1")
	}
	if t.PointsPerRoute < 2 {
		return fmt.Errorf("training.points_per_route must be >= 2, got %d", t.PointsPerRoute)
	}
	if err := t.CityBounds.Validate(); err != nil {
		return fmt.Errorf("training.city_bounds: %w", err)
	}
	if t.TrainNoise < 0 || t.HoldoutNoise < 0 {
		return fmt.Errorf("training noise fractions must be non-negative")
	}
	if t.MaxCrimesPerRoute < 1 {
		return fmt.Errorf("training.max_crimes_per_route must be >= 1, got %d", t.MaxCrimesPerRoute)
	}
	if t.Forest.Trees < 1 || t.Forest.MaxDepth < 1 || t.Forest.MinSamplesSplit < 2 {
		return fmt.Errorf("training.forest requires trees >= 1, max_depth >= 1, min_samples_split >= 2")
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// validNamesList returns the sorted keys of a validity map.
func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
