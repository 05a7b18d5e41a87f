package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimary(t *testing.T) {
	tests := []struct {
		name       string
		projection float64
		line       float64
		want       Recommendation
	}{
		{"over at threshold gap", 215.4, 210, Over},
		{"exactly threshold", 215.0, 210, Over},
		{"under", 203.2, 210, Under},
		{"inside threshold high", 214.9, 210, NoBet},
		{"inside threshold low", 205.1, 210, NoBet},
		{"dead even", 210, 210, NoBet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Primary(tt.projection, tt.line)
			assert.Equal(t, tt.want, v.Recommendation)
			assert.InDelta(t, tt.projection-tt.line, v.Diff, 1e-9)
		})
	}
}

func TestBlendedValue(t *testing.T) {
	// 0.3×220 + 0.7×210 = 213.0
	assert.Equal(t, 213.0, BlendedValue(220, 210))
	assert.Equal(t, 210.0, BlendedValue(210, 210))
	// Rounded to one decimal.
	assert.Equal(t, 211.6, BlendedValue(215.3, 210.0))
}

func TestBlended(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		avg  float64
		line float64
		want Recommendation
	}{
		{"over on tight threshold", 220, 210, 211, Over},
		{"under on tight threshold", 200, 210, 209, Under},
		{"no bet inside band", 211, 210, 210, NoBet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Blended(tt.raw, tt.avg, tt.line).Recommendation)
		})
	}
}

func TestUnavailable(t *testing.T) {
	assert.Equal(t, NoBet, Unavailable().Recommendation)
}
