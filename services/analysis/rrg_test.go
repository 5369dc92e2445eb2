package analysis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveAlwaysBounded(t *testing.T) {
	calc := NewRSCalculator(4536.89)
	calc.Rand = rand.New(rand.NewSource(42))

	cases := []struct {
		price  float64
		change float64
	}{
		{0, 0},
		{1, -0.5},
		{4536.89, 0},
		{1e9, 1e6},
		{0.0001, -1e6},
		{250000, 80},
		{3, -99.9},
	}

	for _, tc := range cases {
		for i := 0; i < 100; i++ {
			ratio, momentum := calc.Derive(tc.price, tc.change)
			require.GreaterOrEqual(t, ratio, IndicatorFloor, "price=%v change=%v", tc.price, tc.change)
			require.LessOrEqual(t, ratio, IndicatorCeiling, "price=%v change=%v", tc.price, tc.change)
			require.GreaterOrEqual(t, momentum, IndicatorFloor, "price=%v change=%v", tc.price, tc.change)
			require.LessOrEqual(t, momentum, IndicatorCeiling, "price=%v change=%v", tc.price, tc.change)
		}
	}
}

func TestDeriveDeterministicWithoutNoise(t *testing.T) {
	calc := &RSCalculator{BenchmarkPrice: 100}

	ratio, momentum := calc.Derive(100, 10)
	require.Equal(t, 100.0, ratio)
	require.Equal(t, 105.0, momentum)

	ratio, momentum = calc.Derive(90, -6)
	require.Equal(t, 90.0, ratio)
	require.Equal(t, 97.0, momentum)
}

func TestDeriveClampsExtremes(t *testing.T) {
	calc := &RSCalculator{BenchmarkPrice: 100}

	ratio, momentum := calc.Derive(1e6, 1e6)
	require.Equal(t, IndicatorCeiling, ratio)
	require.Equal(t, IndicatorCeiling, momentum)

	ratio, momentum = calc.Derive(0, -1e6)
	require.Equal(t, IndicatorFloor, ratio)
	require.Equal(t, IndicatorFloor, momentum)
}

func TestDeriveSeededNoiseIsReproducible(t *testing.T) {
	first := NewRSCalculator(4536.89)
	first.Rand = rand.New(rand.NewSource(7))
	second := NewRSCalculator(4536.89)
	second.Rand = rand.New(rand.NewSource(7))

	r1, m1 := first.Derive(4500, 1.5)
	r2, m2 := second.Derive(4500, 1.5)
	require.Equal(t, r1, r2)
	require.Equal(t, m1, m2)
}
