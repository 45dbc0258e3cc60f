package domain

// Report status values.
const (
	StatusComplete = "Investigation Complete"
	StatusFallback = "Investigation Complete (Fallback Mode)"
)

// Incident severity levels, highest first.
const (
	IncidentCritical = "Critical"
	IncidentHigh     = "High"
	IncidentMedium   = "Medium"
	IncidentLow      = "Low"
)

// Confidence levels for the final report.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

var incidentRank = map[string]int{
	IncidentCritical: 4,
	IncidentHigh:     3,
	IncidentMedium:   2,
	IncidentLow:      1,
}

// EscalateSeverity returns the higher-ranked of the two levels. Unknown
// levels rank below Low, so escalation never loses information.
func EscalateSeverity(current, proposed string) string {
	if incidentRank[proposed] > incidentRank[current] {
		return proposed
	}
	return current
}

// Recommendation is one ordered action item in the final report.
type Recommendation struct {
	Priority  string `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// Diagnosis is the final output of a workflow run. The field set is the
// stable report boundary; SupportingEvidence carries the raw per-task
// results keyed by node name.
type Diagnosis struct {
	Status             string                            `json:"status"`
	Severity           string                            `json:"severity"`
	RootCause          string                            `json:"root_cause"`
	Summary            string                            `json:"diagnosis"`
	Correlation        string                            `json:"correlation"`
	AffectedComponents []string                          `json:"affected_components"`
	Recommendations    []Recommendation                  `json:"recommendations"`
	ConfidenceLevel    string                            `json:"confidence_level"`
	SupportingEvidence map[string]map[string]interface{} `json:"supporting_evidence"`
}
