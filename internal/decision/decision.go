// Package decision computes bet recommendations from pace projections and
// resolved market lines.
//
// Two independent rule sets apply at the decision window: the primary rule
// compares the running-average projection against the line with a 5-point
// threshold, and the experimental rule compares a 0.3 raw / 0.7 average
// blend against the same line with a tighter 1.5-point threshold.
package decision

import (
	"math"

	"github.com/hoopsignal/hoopsignal/internal/pace"
)

// Recommendation is the outcome of comparing a projection to a line.
type Recommendation string

const (
	Over  Recommendation = "OVER"
	Under Recommendation = "UNDER"
	NoBet Recommendation = "NO BET"
)

const (
	// PrimaryThreshold is the minimum projection-to-line gap for a primary bet.
	PrimaryThreshold = 5.0
	// BlendedThreshold is the tighter gap used by the experimental rule.
	BlendedThreshold = 1.5
	// blendRatio weights the raw projection in the experimental blend.
	blendRatio = 0.3
)

// Verdict pairs a recommendation with the projection-to-line gap it was
// derived from.
type Verdict struct {
	Recommendation Recommendation
	Diff           float64
}

// Unavailable is the verdict used when no market line could be resolved.
func Unavailable() Verdict {
	return Verdict{Recommendation: NoBet}
}

// Primary applies the primary rule: OVER or UNDER when the average
// projection diverges from the line by at least 5 points, NO BET otherwise.
func Primary(projection, line float64) Verdict {
	diff := projection - line
	v := Verdict{Recommendation: NoBet, Diff: diff}
	if math.Abs(diff) >= PrimaryThreshold {
		if diff > 0 {
			v.Recommendation = Over
		} else {
			v.Recommendation = Under
		}
	}
	return v
}

// BlendedValue combines the raw and average projections (0.3 raw, 0.7
// average), rounded to display precision.
func BlendedValue(raw, avg float64) float64 {
	return pace.Round1(raw*blendRatio + avg*(1-blendRatio))
}

// Blended applies the experimental rule to the blended projection with the
// tighter threshold.
func Blended(raw, avg, line float64) Verdict {
	diff := BlendedValue(raw, avg) - line
	v := Verdict{Recommendation: NoBet, Diff: diff}
	if math.Abs(diff) >= BlendedThreshold {
		if diff > 0 {
			v.Recommendation = Over
		} else {
			v.Recommendation = Under
		}
	}
	return v
}
