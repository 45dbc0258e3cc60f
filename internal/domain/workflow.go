package domain

import (
	"fmt"
	"strings"

	"github.com/oselabs/sleuth/internal/xjson"
)

// NodeID names a node in the task graph. IDs are stable for the duration
// of a run and key the result mapping handed to the sink.
type NodeID string

const (
	NodeLogAnalysis        NodeID = "log_analysis"
	NodeMetricsAnalysis    NodeID = "metrics_analysis"
	NodeDeploymentAnalysis NodeID = "deployment_analysis"
	NodeSynthesis          NodeID = "synthesis"
)

// LogEvent is a single decoded log line.
type LogEvent struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// LogBatch is the shared workflow input: one decoded log payload, passed by
// reference to every node and treated as immutable for the whole run.
type LogBatch struct {
	LogGroup  string     `json:"logGroup"`
	LogStream string     `json:"logStream"`
	Events    []LogEvent `json:"logEvents"`
}

// Text renders the batch as one timestamped line per event, the shape the
// analysis prompts expect.
func (b *LogBatch) Text() string {
	if b == nil || len(b.Events) == 0 {
		return ""
	}
	lines := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		lines = append(lines, fmt.Sprintf("%d: %s", e.Timestamp, e.Message))
	}
	return strings.Join(lines, "\n")
}

// AgentOutput is the typed record a task produces. Evidence flattens it to
// a plain mapping for inclusion in the final report.
type AgentOutput interface {
	Evidence() map[string]interface{}
}

// NodeResult is the per-node outcome slot. A nil Err means the task ran
// clean; a non-nil Err marks the result degraded, but Output always carries
// a usable value so downstream consumers have something to reason about.
type NodeResult struct {
	Output AgentOutput
	Err    error
}

func OkResult(out AgentOutput) NodeResult {
	return NodeResult{Output: out}
}

func DegradedNodeResult(out AgentOutput, err error) NodeResult {
	return NodeResult{Output: out, Err: err}
}

func (r NodeResult) Degraded() bool {
	return r.Err != nil
}

// Evidence returns the raw task output as a plain mapping, annotated with
// the degradation error when one is attached.
func (r NodeResult) Evidence() map[string]interface{} {
	ev := map[string]interface{}{}
	if r.Output != nil {
		ev = r.Output.Evidence()
	}
	if r.Err != nil {
		ev["error"] = r.Err.Error()
	}
	return ev
}

// RawOutput is an untyped output used where no richer record exists, e.g.
// when the executor recovers a panicking task.
type RawOutput map[string]interface{}

func (o RawOutput) Evidence() map[string]interface{} {
	ev := make(map[string]interface{}, len(o))
	for k, v := range o {
		ev[k] = v
	}
	return ev
}

// LogAnalysis is the log task's output: the classified failure pattern,
// the generated hypothesis and the ranked root cause candidates.
type LogAnalysis struct {
	Pattern       string        `json:"pattern"`
	Confidence    float64       `json:"confidence"`
	Severity      Severity      `json:"severity"`
	Hypothesis    string        `json:"hypothesis"`
	Issues        []string      `json:"issues"`
	Summary       string        `json:"summary"`
	Possibilities []Possibility `json:"possibilities"`
}

func (a *LogAnalysis) Evidence() map[string]interface{} {
	return asEvidence(a)
}

// MetricsAnalysis is the metrics task's output.
type MetricsAnalysis struct {
	Status      string            `json:"status"`
	Alerts      []string          `json:"alerts"`
	Summary     string            `json:"summary"`
	Utilization map[string]string `json:"utilization,omitempty"`
}

func (a *MetricsAnalysis) Evidence() map[string]interface{} {
	return asEvidence(a)
}

// DeploymentAnalysis is the deployment-diff task's output: changed
// parameters mapped to a short risk explanation, plus an overall level.
type DeploymentAnalysis struct {
	RiskLevel RiskLevel         `json:"risk_level"`
	Changes   map[string]string `json:"changes"`
	Summary   string            `json:"summary,omitempty"`
}

func (a *DeploymentAnalysis) Evidence() map[string]interface{} {
	return asEvidence(a)
}

// RiskLevel grades the blast radius of a deployment change.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

var riskRank = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// EscalateRisk returns the higher-ranked of the two levels.
func EscalateRisk(current, proposed RiskLevel) RiskLevel {
	if riskRank[proposed] > riskRank[current] {
		return proposed
	}
	return current
}

func asEvidence(v interface{}) map[string]interface{} {
	raw, err := xjson.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := xjson.Unmarshal(raw, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
