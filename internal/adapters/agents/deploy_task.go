package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
	"github.com/oselabs/sleuth/internal/xjson"
)

// Parameters whose reduction is treated as high risk by the heuristic
// assessment.
var highRiskReductions = map[string]bool{
	"memory_size": true,
	"timeout":     true,
}

// DeployTask assesses the risk of recent configuration changes from a
// unified diff. The primary path asks a synchronous text-generation
// backend; on failure it falls back to a deterministic scan of the diff for
// reduced numeric parameters. With no diff at all the safe default is an
// empty change map at low risk.
type DeployTask struct {
	llm    ports.TextCompleter
	diffs  ports.DiffSource
	logger *slog.Logger
}

func NewDeployTask(llm ports.TextCompleter, diffs ports.DiffSource, logger *slog.Logger) *DeployTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeployTask{llm: llm, diffs: diffs, logger: logger}
}

func (t *DeployTask) Name() domain.NodeID {
	return domain.NodeDeploymentAnalysis
}

func (t *DeployTask) Run(ctx context.Context, _ *domain.LogBatch) domain.NodeResult {
	if t.diffs == nil {
		return t.emptyResult(domain.NewBackendError("diff", "source", domain.ErrBackendUnavailable))
	}

	diffText, err := t.diffs.Diff(ctx)
	if err != nil {
		return t.emptyResult(domain.NewBackendError("diff", "compare", err))
	}

	if t.llm == nil {
		return t.heuristicResult(diffText, domain.NewBackendError("llm", "complete", domain.ErrBackendUnavailable))
	}

	response, err := t.llm.Complete(ctx, deploySystemPrompt, diffText)
	if err != nil {
		return t.heuristicResult(diffText, domain.NewBackendError("llm", "complete", err))
	}

	candidate, ok := xjson.Extract(response)
	if !ok {
		return t.heuristicResult(diffText, domain.ErrMalformedAnswer)
	}
	analysis := &domain.DeploymentAnalysis{}
	if err := xjson.Unmarshal([]byte(candidate), analysis); err != nil || analysis.RiskLevel == "" {
		return t.heuristicResult(diffText, domain.ErrMalformedAnswer)
	}
	if analysis.Changes == nil {
		analysis.Changes = map[string]string{}
	}

	return domain.OkResult(analysis)
}

func (t *DeployTask) emptyResult(cause error) domain.NodeResult {
	t.logger.Warn("deployment analysis degraded, no diff available", "error", cause)
	return domain.DegradedNodeResult(&domain.DeploymentAnalysis{
		RiskLevel: domain.RiskLow,
		Changes:   map[string]string{},
		Summary:   "No deployment diff available",
	}, cause)
}

func (t *DeployTask) heuristicResult(diffText string, cause error) domain.NodeResult {
	analysis := assessDiff(diffText)
	t.logger.Warn("deployment analysis degraded, using heuristic assessment",
		"risk_level", analysis.RiskLevel,
		"changes", len(analysis.Changes),
		"error", cause,
	)
	return domain.DegradedNodeResult(analysis, cause)
}

// assessDiff scans removed/added `key = value` pairs for numeric parameters
// that shrank between snapshots.
func assessDiff(diffText string) *domain.DeploymentAnalysis {
	removed := map[string]string{}
	matched := map[string]bool{}
	analysis := &domain.DeploymentAnalysis{
		RiskLevel: domain.RiskLow,
		Changes:   map[string]string{},
		Summary:   "Heuristic diff assessment (LLM unavailable)",
	}

	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "-"):
			if key, value, ok := parseAssignment(line[1:]); ok {
				removed[key] = value
			}
		case strings.HasPrefix(line, "+"):
			key, value, ok := parseAssignment(line[1:])
			if !ok {
				continue
			}
			before, seen := removed[key]
			matched[key] = true
			if !seen {
				analysis.Changes[key] = "added: " + value
				analysis.RiskLevel = domain.EscalateRisk(analysis.RiskLevel, domain.RiskMedium)
				continue
			}
			oldNum, errOld := strconv.ParseFloat(before, 64)
			newNum, errNew := strconv.ParseFloat(value, 64)
			switch {
			case errOld == nil && errNew == nil && newNum < oldNum:
				analysis.Changes[key] = fmt.Sprintf("reduced from %s to %s", before, value)
				if highRiskReductions[key] {
					analysis.RiskLevel = domain.EscalateRisk(analysis.RiskLevel, domain.RiskHigh)
				} else {
					analysis.RiskLevel = domain.EscalateRisk(analysis.RiskLevel, domain.RiskMedium)
				}
			case before != value:
				analysis.Changes[key] = fmt.Sprintf("changed from %s to %s", before, value)
				analysis.RiskLevel = domain.EscalateRisk(analysis.RiskLevel, domain.RiskMedium)
			}
		}
	}

	for key, value := range removed {
		if matched[key] {
			continue
		}
		analysis.Changes[key] = fmt.Sprintf("removed (was %s)", value)
		analysis.RiskLevel = domain.EscalateRisk(analysis.RiskLevel, domain.RiskMedium)
	}

	return analysis
}

// parseAssignment splits a `key = value` line, tolerating terraform-style
// quoting and trailing comments.
func parseAssignment(line string) (string, string, bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.Trim(strings.TrimSpace(parts[1]), `"`)
	if key == "" || value == "" || strings.ContainsAny(key, "{}#") {
		return "", "", false
	}
	return key, value, true
}
