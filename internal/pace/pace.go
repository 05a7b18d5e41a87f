// Package pace converts (score, elapsed-time) samples into per-second scoring
// rates and classifies their recent behavior.
//
// All classifiers are pure functions of a fixed five-sample trailing window:
//
//	Momentum counts up/down moves above a noise floor of 0.0005 pts/sec.
//	Trend measures flatness, monotonic runs, and direction reversals.
//
// The tracker owns the sample sequences; this package never mutates them.
package pace

import "math"

const (
	// QuarterSeconds is the length of one regulation period.
	QuarterSeconds = 300
	// OvertimeSeconds is the length of one overtime period.
	OvertimeSeconds = 180
	// RegulationSeconds is the full regulation duration used for projections.
	RegulationSeconds = 1200

	// classifierWindow is the number of trailing samples the classifiers read.
	classifierWindow = 5
	// momentumNoiseFloor suppresses sub-noise rate wiggles in momentum counting.
	momentumNoiseFloor = 0.0005
	// trendFlatnessBand is the max-min spread under which pace counts as flat.
	trendFlatnessBand = 0.002
)

// Momentum classifies short-term scoring acceleration.
type Momentum string

const (
	MomentumInsufficientData Momentum = "INSUFFICIENT_DATA"
	MomentumOnFire           Momentum = "ON_FIRE"
	MomentumHeatingUp        Momentum = "HEATING_UP"
	MomentumSteadyPace       Momentum = "STEADY_PACE"
	MomentumCoolingOff       Momentum = "COOLING_OFF"
	MomentumSlowingDown      Momentum = "SLOWING_DOWN"
)

// Trend classifies how reliable the recent pace reading is.
type Trend string

const (
	TrendNotEnoughData Trend = "NOT_ENOUGH_DATA"
	TrendReliable      Trend = "RELIABLE"
	TrendStrong        Trend = "STRONG"
	TrendCaution       Trend = "CAUTION"
	TrendRisky         Trend = "RISKY"
)

// ElapsedSeconds returns cumulative game-seconds played at the given clock
// reading. Regulation periods run 300 seconds each; overtime periods 180.
// The result is non-positive until the period-1 clock has advanced, and
// callers must discard such readings before sampling.
func ElapsedSeconds(period, minute, second int) int {
	remaining := minute*60 + second
	if period <= 4 {
		return (period-1)*QuarterSeconds + (QuarterSeconds - remaining)
	}
	overtimes := period - 4
	return 4*QuarterSeconds + (overtimes-1)*OvertimeSeconds + (OvertimeSeconds - remaining)
}

// Rate returns the per-second scoring rate for a cumulative score.
// Played must be strictly positive.
func Rate(score, played int) float64 {
	return float64(score) / float64(played)
}

// Average returns the arithmetic mean of samples, or 0 for an empty slice.
func Average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// RawProjection extrapolates an instantaneous rate to full regulation.
func RawProjection(rate float64) float64 {
	return rate * RegulationSeconds
}

// AverageProjection extrapolates the running mean rate to full regulation.
func AverageProjection(samples []float64) float64 {
	return Average(samples) * RegulationSeconds
}

// Round1 rounds to one decimal for display values.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round4 rounds to four decimals for audit values.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// AnalyzeMomentum classifies the last five samples by counting consecutive
// differences beyond the noise floor. Requires at least five samples.
func AnalyzeMomentum(samples []float64) Momentum {
	if len(samples) < classifierWindow {
		return MomentumInsufficientData
	}

	last := samples[len(samples)-classifierWindow:]
	ups, downs := 0, 0
	for i := 1; i < len(last); i++ {
		d := last[i] - last[i-1]
		if d > momentumNoiseFloor {
			ups++
		} else if d < -momentumNoiseFloor {
			downs++
		}
	}

	switch {
	case ups >= 3:
		return MomentumOnFire
	case downs >= 3:
		return MomentumCoolingOff
	case ups == downs:
		return MomentumSteadyPace
	case ups > downs:
		return MomentumHeatingUp
	default:
		return MomentumSlowingDown
	}
}

// ClassifyTrend labels the reliability of the last five samples: flat pace is
// RELIABLE, a monotonic run is STRONG or CAUTION, two or more direction
// reversals are RISKY, and mixed windows fall to the majority direction.
// Requires at least five samples.
func ClassifyTrend(samples []float64) Trend {
	if len(samples) < classifierWindow {
		return TrendNotEnoughData
	}

	last := samples[len(samples)-classifierWindow:]
	diffs := make([]float64, 0, classifierWindow-1)
	ups, downs := 0, 0
	lo, hi := last[0], last[0]
	for i := 1; i < len(last); i++ {
		d := last[i] - last[i-1]
		diffs = append(diffs, d)
		if d > 0 {
			ups++
		} else if d < 0 {
			downs++
		}
		if last[i] < lo {
			lo = last[i]
		}
		if last[i] > hi {
			hi = last[i]
		}
	}

	if hi-lo <= trendFlatnessBand {
		return TrendReliable
	}
	if ups == len(diffs) {
		return TrendStrong
	}
	if downs == len(diffs) {
		return TrendCaution
	}

	reversals := 0
	for i := 0; i < len(diffs)-1; i++ {
		if diffs[i] != 0 && diffs[i+1] != 0 && sign(diffs[i]) != sign(diffs[i+1]) {
			reversals++
		}
	}
	if reversals >= 2 {
		return TrendRisky
	}

	if ups > downs {
		return TrendStrong
	}
	return TrendCaution
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
