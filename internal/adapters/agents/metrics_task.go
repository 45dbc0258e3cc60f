package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
	"github.com/oselabs/sleuth/internal/xjson"
)

// Utilization at or above this share of capacity raises a fallback alert.
const utilizationAlertThreshold = 90.0

// MetricsTask interprets resource utilization figures embedded in the log
// batch. The primary path asks a synchronous text-generation backend; on
// any failure it degrades to deterministic threshold rules.
type MetricsTask struct {
	llm    ports.TextCompleter
	logger *slog.Logger
}

func NewMetricsTask(llm ports.TextCompleter, logger *slog.Logger) *MetricsTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsTask{llm: llm, logger: logger}
}

func (t *MetricsTask) Name() domain.NodeID {
	return domain.NodeMetricsAnalysis
}

func (t *MetricsTask) Run(ctx context.Context, batch *domain.LogBatch) domain.NodeResult {
	utilization := extractUtilization(batch)

	if t.llm == nil {
		return t.fallback(utilization, domain.NewBackendError("llm", "complete", domain.ErrBackendUnavailable))
	}

	response, err := t.llm.Complete(ctx, metricsSystemPrompt, metricsUserPrompt(utilization, batch.Text()))
	if err != nil {
		return t.fallback(utilization, domain.NewBackendError("llm", "complete", err))
	}

	candidate, ok := xjson.Extract(response)
	if !ok {
		return t.fallback(utilization, domain.ErrMalformedAnswer)
	}
	analysis := &domain.MetricsAnalysis{Utilization: utilization}
	if err := xjson.Unmarshal([]byte(candidate), analysis); err != nil || analysis.Status == "" {
		return t.fallback(utilization, domain.ErrMalformedAnswer)
	}
	if analysis.Alerts == nil {
		analysis.Alerts = []string{}
	}
	analysis.Utilization = utilization

	return domain.OkResult(analysis)
}

// fallback applies threshold rules so the synthesis stage still sees real
// alerts when the backend is down.
func (t *MetricsTask) fallback(utilization map[string]string, cause error) domain.NodeResult {
	analysis := &domain.MetricsAnalysis{
		Status:      "ok",
		Alerts:      []string{},
		Summary:     "Threshold-based interpretation (LLM unavailable)",
		Utilization: utilization,
	}

	keys := make([]string, 0, len(utilization))
	for k := range utilization {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := parsePercent(utilization[key])
		if !ok || value < utilizationAlertThreshold {
			continue
		}
		metric := metricDisplayName(key)
		analysis.Alerts = append(analysis.Alerts, fmt.Sprintf("High %s detected (Fallback)", metric))
		if strings.Contains(key, "memory") {
			analysis.Status = "critical"
		} else if analysis.Status != "critical" {
			analysis.Status = "degraded"
		}
	}

	t.logger.Warn("metrics analysis degraded",
		"status", analysis.Status,
		"alerts", len(analysis.Alerts),
		"error", cause,
	)
	return domain.DegradedNodeResult(analysis, cause)
}

// extractUtilization scans event messages for embedded JSON objects and
// collects *_utilization figures.
func extractUtilization(batch *domain.LogBatch) map[string]string {
	utilization := map[string]string{}
	for _, e := range batch.Events {
		obj, ok := xjson.ExtractObject(e.Message)
		if !ok {
			continue
		}
		for key, value := range obj {
			if !strings.HasSuffix(key, "_utilization") {
				continue
			}
			if s, ok := value.(string); ok {
				utilization[key] = s
			}
		}
	}
	return utilization
}

func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// metricDisplayName maps a utilization key to the name used in alert text,
// e.g. "memory_utilization" -> "MemoryUsed".
func metricDisplayName(key string) string {
	switch key {
	case "memory_utilization":
		return "MemoryUsed"
	case "cpu_utilization":
		return "CPUUtilization"
	default:
		return strings.TrimSuffix(key, "_utilization")
	}
}
