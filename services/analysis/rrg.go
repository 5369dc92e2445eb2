package analysis

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
)

// Indicator bounds for the rotation chart axes
const (
	IndicatorFloor   = 85.0
	IndicatorCeiling = 115.0
)

// Default noise amplitudes. The noise term is a stand-in for a real
// relative-strength computation over historical price series; set the
// amplitudes to zero for deterministic output.
const (
	DefaultRatioNoise    = 10.0
	DefaultMomentumNoise = 5.0
)

// RSCalculator derives the bounded RS-Ratio / RS-Momentum pair plotted on
// the rotation chart from a raw (price, percent change) quote
type RSCalculator struct {
	BenchmarkPrice float64
	RatioNoise     float64
	MomentumNoise  float64
	Rand           *rand.Rand
}

// NewRSCalculator creates a calculator with the default noise amplitudes
func NewRSCalculator(benchmarkPrice float64) *RSCalculator {
	return &RSCalculator{
		BenchmarkPrice: benchmarkPrice,
		RatioNoise:     DefaultRatioNoise,
		MomentumNoise:  DefaultMomentumNoise,
	}
}

// Derive computes the indicator pair. Both outputs are clamped to
// [IndicatorFloor, IndicatorCeiling] regardless of input magnitude and
// rounded to two decimal places.
func (c *RSCalculator) Derive(price, changePercent float64) (rsRatio, rsMomentum float64) {
	relativePerformance := price / c.BenchmarkPrice * 100

	rsRatio = relativePerformance + c.noise(c.RatioNoise)
	rsMomentum = 100 + changePercent*0.5 + c.noise(c.MomentumNoise)

	return round2(clamp(rsRatio)), round2(clamp(rsMomentum))
}

// noise returns a symmetric random perturbation in [-amplitude/2, amplitude/2)
func (c *RSCalculator) noise(amplitude float64) float64 {
	if amplitude == 0 {
		return 0
	}
	if c.Rand != nil {
		return (c.Rand.Float64() - 0.5) * amplitude
	}
	return (rand.Float64() - 0.5) * amplitude
}

func clamp(value float64) float64 {
	return math.Max(IndicatorFloor, math.Min(IndicatorCeiling, value))
}

func round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}
