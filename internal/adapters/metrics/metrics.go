// Package metrics exposes execution telemetry through Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds all collectors for the investigation engine and implements
// the MetricsSink port.
type Recorder struct {
	RunsTotal           prometheus.Counter
	NodeExecutionsTotal *prometheus.CounterVec
	NodeDuration        *prometheus.HistogramVec
	PollOutcomesTotal   *prometheus.CounterVec
	SynthesisFallbacks  prometheus.Counter
}

// NewRecorder builds and registers the collectors. Pass
// prometheus.DefaultRegisterer for process-wide metrics or a private
// registry in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sleuth",
			Name:      "runs_total",
			Help:      "Investigation runs started.",
		}),
		NodeExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sleuth",
			Name:      "node_executions_total",
			Help:      "Task node executions by node and outcome.",
		}, []string{"node", "outcome"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sleuth",
			Name:      "node_duration_seconds",
			Help:      "Task node execution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"node"}),
		PollOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sleuth",
			Name:      "poll_outcomes_total",
			Help:      "Terminal outcomes of asynchronous job polling.",
		}, []string{"outcome"}),
		SynthesisFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sleuth",
			Name:      "synthesis_fallbacks_total",
			Help:      "Times structured synthesis fell back to rule-based mode.",
		}),
	}

	reg.MustRegister(
		r.RunsTotal,
		r.NodeExecutionsTotal,
		r.NodeDuration,
		r.PollOutcomesTotal,
		r.SynthesisFallbacks,
	)
	return r
}

func (r *Recorder) RunStarted() {
	r.RunsTotal.Inc()
}

func (r *Recorder) NodeCompleted(node string, degraded bool, elapsed time.Duration) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	r.NodeExecutionsTotal.WithLabelValues(node, outcome).Inc()
	r.NodeDuration.WithLabelValues(node).Observe(elapsed.Seconds())
}

func (r *Recorder) PollFinished(outcome string) {
	r.PollOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SynthesisFellBack() {
	r.SynthesisFallbacks.Inc()
}
