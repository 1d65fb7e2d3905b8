// Package dataset holds the immutable incident dataset and the sources that load it.
package dataset

import (
	"context"
	"fmt"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// DefaultMaxSeverity is used when a dataset holds no incidents.
const DefaultMaxSeverity = 5

// Severity bounds accepted at load time.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Source loads an ordered collection of incidents from a location.
// Missing required fields must be reported as safety.ErrDataValidation.
type Source interface {
	Load(ctx context.Context, path string) ([]safety.Incident, error)
}

// Dataset is an ordered, read-only collection of incidents.
// Points[i] is always the coordinate of Incidents[i].
type Dataset struct {
	Incidents   []safety.Incident
	Points      []safety.Point
	MaxSeverity int
}

// New validates incidents and derives the coordinate array and max severity.
// The input slice is copied; later mutation by the caller is not observed.
func New(incidents []safety.Incident) (*Dataset, error) {
	ds := &Dataset{
		Incidents:   make([]safety.Incident, len(incidents)),
		Points:      make([]safety.Point, len(incidents)),
		MaxSeverity: DefaultMaxSeverity,
	}
	seen := make(map[string]int, len(incidents))
	maxSev := 0
	for i, inc := range incidents {
		if inc.ID == "" {
			return nil, fmt.Errorf("%w: incident %d has an empty id", safety.ErrDataValidation, i)
		}
		if prev, dup := seen[inc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate incident id %q at rows %d and %d", safety.ErrDataValidation, inc.ID, prev, i)
		}
		seen[inc.ID] = i
		if inc.Severity < MinSeverity || inc.Severity > MaxSeverity {
			return nil, fmt.Errorf("%w: incident %q severity %d outside [%d, %d]",
				safety.ErrDataValidation, inc.ID, inc.Severity, MinSeverity, MaxSeverity)
		}
		if !finite(inc.Lat) || !finite(inc.Lon) {
			return nil, fmt.Errorf("%w: incident %q has non-finite coordinates (%f, %f)",
				safety.ErrDataValidation, inc.ID, inc.Lat, inc.Lon)
		}
		if inc.Lat < -90 || inc.Lat > 90 || inc.Lon < -180 || inc.Lon > 180 {
			return nil, fmt.Errorf("%w: incident %q has out-of-range coordinates (%f, %f)",
				safety.ErrDataValidation, inc.ID, inc.Lat, inc.Lon)
		}
		ds.Incidents[i] = inc
		ds.Points[i] = inc.Point()
		if inc.Severity > maxSev {
			maxSev = inc.Severity
		}
	}
	if maxSev > 0 {
		ds.MaxSeverity = maxSev
	}
	return ds, nil
}

// Len returns the number of incidents.
func (d *Dataset) Len() int { return len(d.Incidents) }

// FilterBounds returns the incidents that fall inside b, preserving order.
func FilterBounds(incidents []safety.Incident, b safety.Bounds) []safety.Incident {
	kept := make([]safety.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if b.Contains(inc.Point()) {
			kept = append(kept, inc)
		}
	}
	return kept
}
