package safety

import (
	"strings"
	"time"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Incident is a single recorded safety event. Immutable once loaded.
type Incident struct {
	ID        string
	Category  string
	Subtype   string
	Lat       float64
	Lon       float64
	Severity  int
	Timestamp time.Time // zero when the source has no date/time columns
}

// Point returns the incident location.
func (i Incident) Point() Point { return Point{Lat: i.Lat, Lon: i.Lon} }

// RouteCandidate is one proposed path between source and destination.
type RouteCandidate struct {
	Name   string
	Points []Point
}

// TimeCategory is the coarse bucket of day used to modulate risk.
type TimeCategory string

const (
	TimeMorning   TimeCategory = "Morning"
	TimeAfternoon TimeCategory = "Afternoon"
	TimeEvening   TimeCategory = "Evening"
	TimeNight     TimeCategory = "Night"
	TimeUnknown   TimeCategory = ""
)

// KnownTimeCategories lists the concrete categories in label-encoding order.
var KnownTimeCategories = []TimeCategory{TimeAfternoon, TimeEvening, TimeMorning, TimeNight}

// ParseTimeCategory maps a case-insensitive name to a TimeCategory.
// Unrecognized names map to TimeUnknown.
func ParseTimeCategory(s string) TimeCategory {
	for _, tc := range KnownTimeCategories {
		if strings.EqualFold(strings.TrimSpace(s), string(tc)) {
			return tc
		}
	}
	return TimeUnknown
}

// TimeCategoryAt buckets the local hour of t: Morning [6,12), Afternoon
// [12,17), Evening [17,21), Night otherwise.
func TimeCategoryAt(t time.Time) TimeCategory {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return TimeMorning
	case h >= 12 && h < 17:
		return TimeAfternoon
	case h >= 17 && h < 21:
		return TimeEvening
	default:
		return TimeNight
	}
}

// Encoded returns the categorical label used in feature vectors.
// Labels follow alphabetical order; TimeUnknown encodes as 0.
func (tc TimeCategory) Encoded() float64 {
	for i, known := range KnownTimeCategories {
		if tc == known {
			return float64(i)
		}
	}
	return 0
}

// MatchedIncident is an incident found near a route, as published to callers.
type MatchedIncident struct {
	CrimeID  string  `json:"crime_id"`
	Category string  `json:"category"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Severity int     `json:"severity"`
}

// RouteEvaluation is the published result for one candidate route.
// Slices of evaluations are ordered by SafetyScore descending.
type RouteEvaluation struct {
	RouteName       string            `json:"route_name"`
	TotalCrimes     int               `json:"total_crimes"`
	SafetyScore     float64           `json:"safety_score"` // in [0.10, 1.00]
	TotalDistanceKm float64           `json:"total_distance_km"`
	NearbyCrimes    []MatchedIncident `json:"nearby_crimes"`
	RouteCoords     []Point           `json:"route_coords"`
	TimeCategory    TimeCategory      `json:"time_category"`
}
