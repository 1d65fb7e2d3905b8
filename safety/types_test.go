package safety

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want TimeCategory
	}{
		{"Morning", TimeMorning},
		{"night", TimeNight},
		{" EVENING ", TimeEvening},
		{"afternoon", TimeAfternoon},
		{"dawn", TimeUnknown},
		{"", TimeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeCategory(tt.in))
		})
	}
}

func TestTimeCategory_Encoded_AlphabeticalLabels(t *testing.T) {
	assert.Equal(t, 0.0, TimeAfternoon.Encoded())
	assert.Equal(t, 1.0, TimeEvening.Encoded())
	assert.Equal(t, 2.0, TimeMorning.Encoded())
	assert.Equal(t, 3.0, TimeNight.Encoded())
	assert.Equal(t, 0.0, TimeUnknown.Encoded())
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "", FailureReason(nil))
	assert.Equal(t, "data_validation", FailureReason(fmt.Errorf("row 3: %w", ErrDataValidation)))
	assert.Equal(t, "provider_unavailable", FailureReason(ErrProviderUnavailable))
	assert.Equal(t, "no_evaluable_routes", FailureReason(fmt.Errorf("batch: %w", ErrNoEvaluableRoutes)))
	assert.Equal(t, "internal", FailureReason(errors.New("boom")))
}

func TestDistanceKm_KnownPair(t *testing.T) {
	// one degree of latitude is ~111 km
	d := DistanceKm(Point{Lat: 28.0, Lon: 77.0}, Point{Lat: 29.0, Lon: 77.0})
	assert.InDelta(t, 111.2, d, 0.5)
	assert.Equal(t, 0.0, DistanceKm(Point{Lat: 28.6, Lon: 77.2}, Point{Lat: 28.6, Lon: 77.2}))
}

func TestPathLengthKm(t *testing.T) {
	assert.Equal(t, 0.0, PathLengthKm(nil))
	assert.Equal(t, 0.0, PathLengthKm([]Point{{Lat: 28.6, Lon: 77.2}}))

	a, b, c := Point{Lat: 28.60, Lon: 77.20}, Point{Lat: 28.61, Lon: 77.20}, Point{Lat: 28.61, Lon: 77.21}
	assert.InDelta(t, DistanceKm(a, b)+DistanceKm(b, c), PathLengthKm([]Point{a, b, c}), 1e-12)
}

func TestSamePath(t *testing.T) {
	a := []Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}
	assert.True(t, SamePath(a, []Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}))
	assert.False(t, SamePath(a, []Point{{Lat: 3, Lon: 4}, {Lat: 1, Lon: 2}}))
	assert.False(t, SamePath(a, a[:1]))
}

func TestPointOrbRoundTrip(t *testing.T) {
	p := Point{Lat: 28.6, Lon: 77.2}
	o := p.Orb()
	assert.Equal(t, 77.2, o[0])
	assert.Equal(t, p, PointFromOrb(o))
}

func TestTimeCategoryAt(t *testing.T) {
	at := func(hour int) time.Time { return time.Date(2024, 3, 1, hour, 30, 0, 0, time.UTC) }
	assert.Equal(t, TimeNight, TimeCategoryAt(at(5)))
	assert.Equal(t, TimeMorning, TimeCategoryAt(at(6)))
	assert.Equal(t, TimeAfternoon, TimeCategoryAt(at(12)))
	assert.Equal(t, TimeEvening, TimeCategoryAt(at(20)))
	assert.Equal(t, TimeNight, TimeCategoryAt(at(21)))
}
