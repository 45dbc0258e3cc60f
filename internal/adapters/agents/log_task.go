package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oselabs/sleuth/internal/core"
	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
	"github.com/oselabs/sleuth/internal/xjson"
)

// Confidence constants for pattern classification: successful structured
// extraction earns the high constant, every fallback path the neutral one.
const (
	classifiedConfidence = 0.85
	fallbackConfidence   = 0.5
)

const fallbackPattern = "unknown"

// LogTask classifies the failure pattern in a log batch and derives a
// hypothesis plus ranked root cause candidates. Each pipeline step delegates
// to an asynchronous research job driven by the poller; every step degrades
// to a safe default on any backend failure, so Run never errors out.
type LogTask struct {
	research ports.ResearchBackend
	poller   core.JobPoller
	logger   *slog.Logger
}

func NewLogTask(research ports.ResearchBackend, poller core.JobPoller, logger *slog.Logger) *LogTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTask{research: research, poller: poller, logger: logger}
}

func (t *LogTask) Name() domain.NodeID {
	return domain.NodeLogAnalysis
}

func (t *LogTask) Run(ctx context.Context, batch *domain.LogBatch) domain.NodeResult {
	raw := batch.Text()
	issues := scanIssues(batch)

	analysis := &domain.LogAnalysis{
		Issues:  issues,
		Summary: fmt.Sprintf("%d suspicious event(s) out of %d", len(issues), len(batch.Events)),
	}

	var degraded error

	pattern, confidence, err := t.classifyPattern(ctx, raw)
	if err != nil {
		degraded = err
	}
	analysis.Pattern = pattern
	analysis.Confidence = confidence
	analysis.Severity = domain.PatternSeverity(pattern)

	hypothesis, err := t.generateHypothesis(ctx, pattern, raw)
	if err != nil && degraded == nil {
		degraded = err
	}
	analysis.Hypothesis = hypothesis

	possibilities, err := t.generatePossibilities(ctx, pattern, hypothesis, raw)
	if err != nil && degraded == nil {
		degraded = err
	}
	analysis.Possibilities = domain.NormalizePossibilities(possibilities)

	if degraded != nil {
		t.logger.Warn("log analysis degraded", "pattern", pattern, "error", degraded)
		return domain.DegradedNodeResult(analysis, degraded)
	}
	return domain.OkResult(analysis)
}

// classifyPattern runs the first pipeline step. The pattern is the first
// key of the extracted JSON object; any other outcome yields "unknown" at
// the fallback confidence.
func (t *LogTask) classifyPattern(ctx context.Context, raw string) (string, float64, error) {
	answer, err := t.researchStep(ctx, patternClassificationPrompt(raw))
	if err != nil {
		return fallbackPattern, fallbackConfidence, err
	}

	pattern, ok := xjson.FirstKey(answer)
	if !ok || pattern == "" {
		return fallbackPattern, fallbackConfidence, domain.ErrMalformedAnswer
	}
	return strings.ToLower(pattern), classifiedConfidence, nil
}

func (t *LogTask) generateHypothesis(ctx context.Context, pattern, raw string) (string, error) {
	fallback := fmt.Sprintf("The error pattern '%s' indicates a potential issue that requires investigation.", pattern)

	answer, err := t.researchStep(ctx, hypothesisPrompt(pattern, raw))
	if err != nil {
		return fallback, err
	}

	obj, ok := xjson.ExtractObject(answer)
	if !ok {
		return fallback, domain.ErrMalformedAnswer
	}
	hypothesis, ok := obj["hypothesis"].(string)
	if !ok || hypothesis == "" {
		return fallback, domain.ErrMalformedAnswer
	}
	return hypothesis, nil
}

func (t *LogTask) generatePossibilities(ctx context.Context, pattern, hypothesis, raw string) ([]domain.Possibility, error) {
	fallback := []domain.Possibility{{
		Cause:       "Insufficient information to determine root cause",
		Probability: 1.0,
		Severity:    domain.SeverityMedium,
		Action:      "Enable detailed logging and tracing for deeper analysis",
	}}

	answer, err := t.researchStep(ctx, possibilitiesPrompt(pattern, hypothesis, raw))
	if err != nil {
		return fallback, err
	}

	candidate, ok := xjson.Extract(answer)
	if !ok {
		return fallback, domain.ErrMalformedAnswer
	}
	var parsed struct {
		Possibilities []domain.Possibility `json:"possibilities"`
	}
	if err := xjson.Unmarshal([]byte(candidate), &parsed); err != nil || len(parsed.Possibilities) == 0 {
		return fallback, domain.ErrMalformedAnswer
	}
	return parsed.Possibilities, nil
}

// researchStep submits one prompt as an asynchronous job and drives it to a
// terminal outcome, mapping every non-completed outcome to an error the
// caller converts into its own default.
func (t *LogTask) researchStep(ctx context.Context, prompt string) (string, error) {
	if t.research == nil {
		return "", domain.NewBackendError("research", "submit", domain.ErrBackendUnavailable)
	}

	outcome := t.poller.Run(ctx,
		func(ctx context.Context) (string, error) { return t.research.Submit(ctx, prompt) },
		t.research.Poll,
	)

	switch outcome.Kind {
	case core.PollCompleted:
		return outcome.Answer, nil
	case core.PollNoHandle:
		return "", domain.NewBackendError("research", "submit", domain.ErrBackendUnavailable)
	case core.PollFailed:
		return "", domain.NewBackendError("research", "poll", domain.ErrBackendUnavailable)
	default:
		return "", domain.NewBackendError("research", "poll", domain.ErrBackendTimeout)
	}
}

var issueMarkers = []string{"error", "exception", "timed out", "fail", "out of memory", "panic"}

// scanIssues collects messages that look like failures. The scan is
// deterministic so the fallback synthesis rules have real input even when
// every backend is down.
func scanIssues(batch *domain.LogBatch) []string {
	issues := []string{}
	for _, e := range batch.Events {
		lower := strings.ToLower(e.Message)
		for _, marker := range issueMarkers {
			if strings.Contains(lower, marker) {
				issues = append(issues, strings.TrimSpace(e.Message))
				break
			}
		}
	}
	return issues
}
