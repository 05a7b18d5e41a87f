package pace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElapsedSeconds(t *testing.T) {
	tests := []struct {
		name    string
		period  int
		minute  int
		second  int
		want    int
	}{
		{"start of game", 1, 5, 0, 0},
		{"one second into Q1", 1, 4, 59, 1},
		{"end of Q1", 1, 0, 0, 300},
		{"start of Q2", 2, 5, 0, 300},
		{"mid Q3", 3, 2, 30, 750},
		{"end of regulation", 4, 0, 0, 1200},
		{"start of OT1", 5, 3, 0, 1200},
		{"one second into OT1", 5, 2, 59, 1201},
		{"end of OT1", 5, 0, 0, 1380},
		{"start of OT2", 6, 3, 0, 1380},
		{"end of OT3", 7, 0, 0, 1740},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElapsedSeconds(tt.period, tt.minute, tt.second))
		})
	}
}

func TestElapsedSecondsStrictlyIncreasing(t *testing.T) {
	// Walk the clock forward through Q2 and assert monotonicity.
	prev := ElapsedSeconds(2, 5, 0)
	for s := 1; s <= 300; s++ {
		rem := 300 - s
		cur := ElapsedSeconds(2, rem/60, rem%60)
		assert.Greater(t, cur, prev, "clock advance at %ds must increase elapsed", s)
		prev = cur
	}
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 0.0, Average([]float64{}))
	assert.InDelta(t, 2.0, Average([]float64{1, 2, 3}), 1e-12)
}

func TestProjections(t *testing.T) {
	assert.InDelta(t, 216.0, RawProjection(0.18), 1e-9)
	assert.InDelta(t, 180.0, AverageProjection([]float64{0.1, 0.2}), 1e-9)
	assert.Equal(t, 215.4, Round1(215.44))
	assert.Equal(t, 0.1835, Round4(0.18349))
}

func TestAnalyzeMomentum(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    Momentum
	}{
		{"too few samples", []float64{0.1, 0.2, 0.3, 0.4}, MomentumInsufficientData},
		{"three ups", []float64{0.10, 0.11, 0.12, 0.13, 0.13}, MomentumOnFire},
		{"four ups", []float64{0.10, 0.11, 0.12, 0.13, 0.14}, MomentumOnFire},
		{"three downs", []float64{0.14, 0.13, 0.12, 0.11, 0.11}, MomentumCoolingOff},
		{"balanced ups and downs", []float64{0.10, 0.12, 0.10, 0.12, 0.10}, MomentumSteadyPace},
		{"two ups one down", []float64{0.10, 0.12, 0.14, 0.12, 0.12}, MomentumHeatingUp},
		{"one up two downs", []float64{0.14, 0.15, 0.13, 0.11, 0.11}, MomentumSlowingDown},
		{"flat window", []float64{0.10, 0.10, 0.10, 0.10, 0.10}, MomentumSteadyPace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeMomentum(tt.samples))
		})
	}
}

func TestAnalyzeMomentumNoiseFloor(t *testing.T) {
	// Differences below the 0.0005 floor count as neither up nor down, so the
	// window is steady regardless of direction.
	samples := []float64{0.1000, 0.1004, 0.1001, 0.1003, 0.1002}
	assert.Equal(t, MomentumSteadyPace, AnalyzeMomentum(samples))
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    Trend
	}{
		{"too few samples", []float64{0.1, 0.2}, TrendNotEnoughData},
		{"flat window", []float64{0.100, 0.101, 0.1005, 0.1002, 0.1008}, TrendReliable},
		{"monotonic up", []float64{0.10, 0.11, 0.12, 0.13, 0.14}, TrendStrong},
		{"monotonic down", []float64{0.14, 0.13, 0.12, 0.11, 0.10}, TrendCaution},
		{"oscillating", []float64{0.10, 0.14, 0.10, 0.14, 0.10}, TrendRisky},
		{"mostly up with a flat step", []float64{0.10, 0.11, 0.11, 0.13, 0.14}, TrendStrong},
		{"mostly down with a flat step", []float64{0.19, 0.18, 0.18, 0.16, 0.15}, TrendCaution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTrend(tt.samples))
		})
	}
}

func TestClassifyTrendOnlyReadsTrailingWindow(t *testing.T) {
	// A wild prefix must not affect the classification of the last five.
	samples := append([]float64{5, 0, 5, 0}, 0.10, 0.11, 0.12, 0.13, 0.14)
	assert.Equal(t, TrendStrong, ClassifyTrend(samples))
}
