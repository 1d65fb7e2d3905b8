package features

import (
	"math"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// legacyDivisors penalize late hours in the legacy score. Unexported to prevent mutation.
var legacyDivisors = map[safety.TimeCategory]float64{
	safety.TimeEvening: 1.2,
	safety.TimeNight:   1.5,
}

// Floor of the legacy base score before the time divisor.
const legacyBaseFloor = 0.3

// LegacyScore is the simpler severity-only score in [0, 1]:
// max(0.3, 1 - totalSeverity/(totalCrimes*maxSeverity + 1)) divided by a
// time-of-day divisor. The predictor and hotspots are not consulted.
func (e *Extractor) LegacyScore(s *Summary) float64 {
	maxSev := float64(e.maxSeverity())
	base := 1 - float64(s.TotalSeverity)/(float64(s.TotalCrimes())*maxSev+1)
	base = math.Max(legacyBaseFloor, base)

	divisor := 1.0
	if d, ok := legacyDivisors[s.TimeCategory]; ok {
		divisor = d
	}
	return math.Max(0, base/divisor)
}
