package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePossibilities(t *testing.T) {
	tests := []struct {
		name  string
		input []Possibility
		want  []float64
	}{
		{
			name: "already normalized",
			input: []Possibility{
				{Cause: "a", Probability: 0.6, Severity: SeverityHigh},
				{Cause: "b", Probability: 0.4, Severity: SeverityLow},
			},
			want: []float64{0.6, 0.4},
		},
		{
			name: "raw model output over 1.0",
			input: []Possibility{
				{Cause: "a", Probability: 0.9, Severity: SeverityCritical},
				{Cause: "b", Probability: 0.7, Severity: SeverityMedium},
				{Cause: "c", Probability: 0.4, Severity: SeverityLow},
			},
			want: []float64{0.45, 0.35, 0.2},
		},
		{
			name: "raw model output under 1.0",
			input: []Possibility{
				{Cause: "a", Probability: 0.1, Severity: SeverityHigh},
				{Cause: "b", Probability: 0.1, Severity: SeverityHigh},
			},
			want: []float64{0.5, 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizePossibilities(tt.input)
			require.Len(t, out, len(tt.want))

			var sum float64
			for i, p := range out {
				assert.InDelta(t, tt.want[i], p.Probability, 1e-9)
				sum += p.Probability
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestNormalizePossibilities_ZeroSum(t *testing.T) {
	fallback := []Possibility{{
		Cause:       "Insufficient information to determine root cause",
		Probability: 1.0,
		Severity:    SeverityMedium,
		Action:      "Enable detailed logging and tracing for deeper analysis",
	}}

	// A zero raw sum must leave the single fallback candidate untouched.
	zeroed := []Possibility{{Cause: "x", Probability: 0, Severity: SeverityMedium}}
	assert.Equal(t, zeroed, NormalizePossibilities(zeroed))
	assert.Equal(t, fallback, NormalizePossibilities(fallback))

	assert.Nil(t, NormalizePossibilities(nil))
	assert.True(t, math.Abs(NormalizePossibilities(fallback)[0].Probability-1.0) < 1e-9)
}

func TestNormalizePossibilities_FillsMissingSeverity(t *testing.T) {
	out := NormalizePossibilities([]Possibility{
		{Cause: "a", Probability: 0.5},
		{Cause: "b", Probability: 0.5, Severity: SeverityCritical},
	})
	assert.Equal(t, SeverityMedium, out[0].Severity)
	assert.Equal(t, SeverityCritical, out[1].Severity)
}

func TestPatternSeverity(t *testing.T) {
	tests := []struct {
		pattern string
		want    Severity
	}{
		{"memory", SeverityCritical},
		{"permission", SeverityCritical},
		{"network", SeverityCritical},
		{"resource", SeverityCritical},
		{"runtime", SeverityCritical},
		{"handler", SeverityCritical},
		{"timeout", SeverityHigh},
		{"throttling", SeverityHigh},
		{"cold_start", SeverityMedium},
		{"unknown", SeverityMedium},
		{"something_new", SeverityMedium},
		{"", SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternSeverity(tt.pattern))
		})
	}
}
