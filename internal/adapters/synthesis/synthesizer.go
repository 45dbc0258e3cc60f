package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
	"github.com/oselabs/sleuth/internal/xjson"
)

const systemPrompt = `You are a Senior Site Reliability Engineer and Incident Commander.
Analyze the investigation findings from multiple specialized agents and produce
a comprehensive incident report.

You will receive:
1. Log Analysis: Errors and issues found in application logs
2. Metrics Analysis: System health metrics and alerts
3. Deployment Analysis: Recent infrastructure changes and their risks

Produce a JSON report with this structure:
{
  "status": "Investigation Complete",
  "severity": "Critical/High/Medium/Low",
  "root_cause": "A clear, concise statement of the root cause",
  "diagnosis": "Detailed explanation of what went wrong",
  "correlation": "How the different findings are connected",
  "affected_components": ["list", "of", "affected", "systems"],
  "recommendations": [
    {"priority": "Immediate/Short-term/Long-term", "action": "...", "rationale": "..."}
  ],
  "confidence_level": "High/Medium/Low"
}

Be thorough but concise. Focus on actionable insights. Respond ONLY with JSON.`

// Synthesizer is the sink node: it folds every upstream result into one
// Diagnosis. The primary path is a single structured-synthesis request; on
// backend or parse failure it falls back to deterministic rules. Degraded
// upstream inputs are ordinary data, never a fallback trigger.
type Synthesizer struct {
	llm     ports.TextCompleter
	logger  *slog.Logger
	metrics ports.MetricsSink
}

func New(llm ports.TextCompleter, logger *slog.Logger, metrics ports.MetricsSink) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{llm: llm, logger: logger, metrics: metrics}
}

func (s *Synthesizer) Synthesize(ctx context.Context, results map[domain.NodeID]domain.NodeResult) domain.Diagnosis {
	evidence := collectEvidence(results)

	diagnosis, err := s.primary(ctx, evidence)
	if err != nil {
		s.logger.Warn("structured synthesis failed, applying fallback rules", "error", err)
		if s.metrics != nil {
			s.metrics.SynthesisFellBack()
		}
		return s.fallback(results, evidence)
	}

	diagnosis.SupportingEvidence = evidence
	return diagnosis
}

func (s *Synthesizer) primary(ctx context.Context, evidence map[string]map[string]interface{}) (domain.Diagnosis, error) {
	if s.llm == nil {
		return domain.Diagnosis{}, domain.NewBackendError("llm", "complete", domain.ErrBackendUnavailable)
	}

	serialized, err := xjson.MarshalIndent(evidence, "", "  ")
	if err != nil {
		return domain.Diagnosis{}, err
	}

	response, err := s.llm.Complete(ctx, systemPrompt, "Here are the investigation findings:\n"+string(serialized))
	if err != nil {
		return domain.Diagnosis{}, domain.NewBackendError("llm", "complete", err)
	}

	candidate, ok := xjson.Extract(response)
	if !ok {
		return domain.Diagnosis{}, domain.ErrMalformedAnswer
	}
	var diagnosis domain.Diagnosis
	if err := xjson.Unmarshal([]byte(candidate), &diagnosis); err != nil {
		return domain.Diagnosis{}, domain.ErrMalformedAnswer
	}
	if diagnosis.Severity == "" || diagnosis.RootCause == "" {
		return domain.Diagnosis{}, domain.ErrMalformedAnswer
	}
	if diagnosis.Status == "" {
		diagnosis.Status = domain.StatusComplete
	}
	if diagnosis.ConfidenceLevel == "" {
		diagnosis.ConfidenceLevel = domain.ConfidenceMedium
	}
	return diagnosis, nil
}

// fallback applies deterministic rules over the typed upstream results. It
// always attaches the raw evidence and reports low confidence.
func (s *Synthesizer) fallback(results map[domain.NodeID]domain.NodeResult, evidence map[string]map[string]interface{}) domain.Diagnosis {
	severity := domain.IncidentLow
	issues := []string{}

	logA := logAnalysisOf(results)
	metricsA := metricsAnalysisOf(results)
	deployA := deploymentAnalysisOf(results)

	if logA != nil && len(logA.Issues) > 0 {
		issues = append(issues, logA.Issues...)
		if containsAny(logA.Issues, "memory", "error") {
			severity = domain.EscalateSeverity(severity, domain.IncidentHigh)
		}
	}

	if metricsA != nil {
		for _, alert := range metricsA.Alerts {
			issues = append(issues, "Metric Alert: "+alert)
		}
		switch metricsA.Status {
		case "critical":
			severity = domain.EscalateSeverity(severity, domain.IncidentCritical)
		case "degraded":
			severity = domain.EscalateSeverity(severity, domain.IncidentHigh)
		}
	}

	if deployA != nil && (deployA.RiskLevel == domain.RiskHigh || deployA.RiskLevel == domain.RiskMedium) {
		severity = domain.EscalateSeverity(severity, domain.IncidentMedium)
		issues = append(issues, fmt.Sprintf("Recent deployment changes with %s risk", deployA.RiskLevel))
	}

	for _, res := range results {
		if res.Degraded() {
			severity = domain.EscalateSeverity(severity, domain.IncidentHigh)
			break
		}
	}

	rootCause := "Unable to determine root cause - manual investigation required"
	if containsAny(issues, "memory") {
		rootCause = "Memory exhaustion detected - check for memory leaks or increased load"
		if deployA != nil {
			if _, changed := deployA.Changes["memory_size"]; changed {
				rootCause = "Memory exhaustion likely caused by recent memory_size reduction in deployment"
			}
		}
	}

	return domain.Diagnosis{
		Status:      domain.StatusFallback,
		Severity:    severity,
		RootCause:   rootCause,
		Summary:     fmt.Sprintf("Detected %d issue(s) across log, metrics, and deployment analysis", len(issues)),
		Correlation: "Automated correlation failed - manual review recommended",
		AffectedComponents: []string{
			"Unknown - requires manual investigation",
		},
		Recommendations: []domain.Recommendation{
			{
				Priority:  "Immediate",
				Action:    "Review the raw findings in supporting_evidence",
				Rationale: "Automated synthesis failed, manual analysis needed",
			},
		},
		ConfidenceLevel:    domain.ConfidenceLow,
		SupportingEvidence: evidence,
	}
}

func collectEvidence(results map[domain.NodeID]domain.NodeResult) map[string]map[string]interface{} {
	evidence := make(map[string]map[string]interface{}, len(results))
	for id, res := range results {
		evidence[string(id)] = res.Evidence()
	}
	return evidence
}

func logAnalysisOf(results map[domain.NodeID]domain.NodeResult) *domain.LogAnalysis {
	if a, ok := results[domain.NodeLogAnalysis].Output.(*domain.LogAnalysis); ok {
		return a
	}
	return nil
}

func metricsAnalysisOf(results map[domain.NodeID]domain.NodeResult) *domain.MetricsAnalysis {
	if a, ok := results[domain.NodeMetricsAnalysis].Output.(*domain.MetricsAnalysis); ok {
		return a
	}
	return nil
}

func deploymentAnalysisOf(results map[domain.NodeID]domain.NodeResult) *domain.DeploymentAnalysis {
	if a, ok := results[domain.NodeDeploymentAnalysis].Output.(*domain.DeploymentAnalysis); ok {
		return a
	}
	return nil
}

func containsAny(items []string, needles ...string) bool {
	for _, item := range items {
		lower := strings.ToLower(item)
		for _, needle := range needles {
			if strings.Contains(lower, needle) {
				return true
			}
		}
	}
	return false
}
