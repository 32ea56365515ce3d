package indicator

import (
	"math/rand"

	"github.com/paperdesk/paperdesk/internal/core"
)

// TrendStrengthEstimator produces an ADX-like trend strength reading.
// It is an interface so the simulated default can be swapped for a real
// directional-movement implementation without touching the scorer.
type TrendStrengthEstimator interface {
	Estimate(candles []core.Candle, period int) float64
}

// SimulatedTrend is the default estimator. It is a known approximation:
// with enough data it reads uniformly in the 25-35 band, which the
// downstream threshold of 25 was tuned against. Insufficient data reads 20.
type SimulatedTrend struct {
	rng *rand.Rand
}

// NewSimulatedTrend creates a SimulatedTrend from the given source. A nil
// rng falls back to a fixed seed so repeated runs stay comparable.
func NewSimulatedTrend(rng *rand.Rand) *SimulatedTrend {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &SimulatedTrend{rng: rng}
}

// Estimate returns the simulated trend strength.
func (s *SimulatedTrend) Estimate(candles []core.Candle, period int) float64 {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(candles) < period+1 {
		return 20
	}
	return 25 + s.rng.Float64()*10
}

// FixedTrend always returns the same value. Used in tests and anywhere a
// deterministic engine cycle is required.
type FixedTrend struct {
	Value float64
}

// Estimate returns the fixed value regardless of input.
func (f FixedTrend) Estimate(candles []core.Candle, period int) float64 {
	return f.Value
}
