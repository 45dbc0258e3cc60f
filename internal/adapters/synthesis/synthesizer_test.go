package synthesis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselabs/sleuth/internal/domain"
)

type fakeCompleter struct {
	response string
	err      error
	user     string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.user = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type countingSink struct{ fallbacks int }

func (c *countingSink) RunStarted()                                 {}
func (c *countingSink) NodeCompleted(string, bool, time.Duration)   {}
func (c *countingSink) PollFinished(string)                         {}
func (c *countingSink) SynthesisFellBack()                          { c.fallbacks++ }

func memoryIncidentResults(degraded bool) map[domain.NodeID]domain.NodeResult {
	logA := &domain.LogAnalysis{
		Pattern:    "memory",
		Confidence: 0.85,
		Severity:   domain.SeverityCritical,
		Issues:     []string{"Runtime exited: out of memory"},
		Summary:    "1 suspicious event(s) out of 4",
	}
	metricsA := &domain.MetricsAnalysis{
		Status: "critical",
		Alerts: []string{"High MemoryUsed detected (Fallback)"},
	}
	deployA := &domain.DeploymentAnalysis{
		RiskLevel: domain.RiskHigh,
		Changes:   map[string]string{"memory_size": "reduced from 512 to 128"},
	}

	wrap := func(out domain.AgentOutput) domain.NodeResult {
		if degraded {
			return domain.DegradedNodeResult(out, errors.New("backend unavailable"))
		}
		return domain.OkResult(out)
	}
	return map[domain.NodeID]domain.NodeResult{
		domain.NodeLogAnalysis:        wrap(logA),
		domain.NodeMetricsAnalysis:    wrap(metricsA),
		domain.NodeDeploymentAnalysis: wrap(deployA),
	}
}

func TestSynthesize_PrimaryPath(t *testing.T) {
	llm := &fakeCompleter{response: `{
		"status": "Investigation Complete",
		"severity": "Critical",
		"root_cause": "Memory limit reduced below working set",
		"diagnosis": "The deployment cut memory_size from 512 to 128 MB.",
		"correlation": "OOM kills began right after the deployment.",
		"affected_components": ["payment-service"],
		"recommendations": [{"priority": "Immediate", "action": "Roll back", "rationale": "Restores capacity"}],
		"confidence_level": "High"
	}`}
	sink := &countingSink{}
	s := New(llm, nil, sink)

	diag := s.Synthesize(context.Background(), memoryIncidentResults(false))

	assert.Equal(t, domain.StatusComplete, diag.Status)
	assert.Equal(t, domain.IncidentCritical, diag.Severity)
	assert.Equal(t, "Memory limit reduced below working set", diag.RootCause)
	assert.Equal(t, domain.ConfidenceHigh, diag.ConfidenceLevel)
	assert.Zero(t, sink.fallbacks)

	// Evidence from every node rides along regardless of what the model said.
	require.Len(t, diag.SupportingEvidence, 3)
	assert.Contains(t, diag.SupportingEvidence, string(domain.NodeLogAnalysis))
	// The model saw the serialized evidence.
	assert.Contains(t, llm.user, "memory_size")
}

func TestSynthesize_PrimaryDefaultsStatusAndConfidence(t *testing.T) {
	llm := &fakeCompleter{response: `{"severity": "High", "root_cause": "Slow dependency"}`}
	diag := New(llm, nil, nil).Synthesize(context.Background(), memoryIncidentResults(false))

	assert.Equal(t, domain.StatusComplete, diag.Status)
	assert.Equal(t, domain.ConfidenceMedium, diag.ConfidenceLevel)
}

func TestSynthesize_FallbackOnMissingLLM(t *testing.T) {
	sink := &countingSink{}
	diag := New(nil, nil, sink).Synthesize(context.Background(), memoryIncidentResults(true))

	assert.Equal(t, domain.StatusFallback, diag.Status)
	assert.Equal(t, domain.IncidentCritical, diag.Severity, "critical metrics status wins")
	assert.Equal(t,
		"Memory exhaustion likely caused by recent memory_size reduction in deployment",
		diag.RootCause)
	assert.Equal(t, domain.ConfidenceLow, diag.ConfidenceLevel)
	assert.Equal(t, []string{"Unknown - requires manual investigation"}, diag.AffectedComponents)
	require.Len(t, diag.Recommendations, 1)
	assert.Equal(t, "Immediate", diag.Recommendations[0].Priority)
	require.Len(t, diag.SupportingEvidence, 3)
	assert.Equal(t, 1, sink.fallbacks)
}

func TestSynthesize_FallbackMemoryWithoutDeployChange(t *testing.T) {
	results := map[domain.NodeID]domain.NodeResult{
		domain.NodeLogAnalysis: domain.OkResult(&domain.LogAnalysis{
			Issues: []string{"fatal: out of memory"},
		}),
		domain.NodeMetricsAnalysis:    domain.OkResult(&domain.MetricsAnalysis{Status: "ok", Alerts: []string{}}),
		domain.NodeDeploymentAnalysis: domain.OkResult(&domain.DeploymentAnalysis{RiskLevel: domain.RiskLow, Changes: map[string]string{}}),
	}
	diag := New(nil, nil, nil).Synthesize(context.Background(), results)

	assert.Equal(t, "Memory exhaustion detected - check for memory leaks or increased load", diag.RootCause)
	assert.Equal(t, domain.IncidentHigh, diag.Severity)
}

func TestSynthesize_FallbackNoSignalsIsLow(t *testing.T) {
	results := map[domain.NodeID]domain.NodeResult{
		domain.NodeLogAnalysis:        domain.OkResult(&domain.LogAnalysis{Issues: []string{}}),
		domain.NodeMetricsAnalysis:    domain.OkResult(&domain.MetricsAnalysis{Status: "ok", Alerts: []string{}}),
		domain.NodeDeploymentAnalysis: domain.OkResult(&domain.DeploymentAnalysis{RiskLevel: domain.RiskLow}),
	}
	diag := New(nil, nil, nil).Synthesize(context.Background(), results)

	assert.Equal(t, domain.IncidentLow, diag.Severity)
	assert.Equal(t, "Unable to determine root cause - manual investigation required", diag.RootCause)
	assert.Contains(t, diag.Summary, "Detected 0 issue(s)")
}

func TestSynthesize_FallbackDegradedUpstreamRaisesSeverity(t *testing.T) {
	results := map[domain.NodeID]domain.NodeResult{
		domain.NodeLogAnalysis: domain.DegradedNodeResult(&domain.LogAnalysis{Issues: []string{}}, errors.New("research down")),
	}
	diag := New(nil, nil, nil).Synthesize(context.Background(), results)

	assert.Equal(t, domain.IncidentHigh, diag.Severity)
	assert.Equal(t, "research down", diag.SupportingEvidence[string(domain.NodeLogAnalysis)]["error"])
}

func TestSynthesize_MalformedModelOutputFallsBack(t *testing.T) {
	cases := map[string]string{
		"no json":          "I cannot produce a report right now.",
		"missing severity": `{"root_cause": "x"}`,
		"missing cause":    `{"severity": "High"}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			diag := New(&fakeCompleter{response: response}, nil, nil).
				Synthesize(context.Background(), memoryIncidentResults(false))
			assert.Equal(t, domain.StatusFallback, diag.Status)
		})
	}
}

func TestSynthesize_CompleteErrorFallsBack(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("rate limited")}
	diag := New(llm, nil, nil).Synthesize(context.Background(), memoryIncidentResults(false))
	assert.Equal(t, domain.StatusFallback, diag.Status)
}
