package domain

// Severity grades a single failure pattern or root cause candidate.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Possibility is one ranked root cause candidate.
type Possibility struct {
	Cause       string   `json:"cause"`
	Probability float64  `json:"probability"`
	Severity    Severity `json:"severity"`
	Action      string   `json:"action"`
}

// NormalizePossibilities rescales probabilities so they sum to 1.0. A
// non-positive raw sum leaves the slice untouched, which keeps the single
// fallback candidate at probability 1.0.
func NormalizePossibilities(ps []Possibility) []Possibility {
	var total float64
	for _, p := range ps {
		total += p.Probability
	}
	if total <= 0 {
		return ps
	}

	out := make([]Possibility, len(ps))
	for i, p := range ps {
		p.Probability /= total
		if p.Severity == "" {
			p.Severity = SeverityMedium
		}
		out[i] = p
	}
	return out
}

var patternSeverities = map[string]Severity{
	"timeout":    SeverityHigh,
	"memory":     SeverityCritical,
	"permission": SeverityCritical,
	"network":    SeverityCritical,
	"resource":   SeverityCritical,
	"runtime":    SeverityCritical,
	"throttling": SeverityHigh,
	"cold_start": SeverityMedium,
	"handler":    SeverityCritical,
	"unknown":    SeverityMedium,
}

// PatternSeverity maps a classified failure pattern to its severity.
// Unrecognized patterns default to medium.
func PatternSeverity(pattern string) Severity {
	if s, ok := patternSeverities[pattern]; ok {
		return s
	}
	return SeverityMedium
}
