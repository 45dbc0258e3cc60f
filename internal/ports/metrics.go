package ports

import "time"

// MetricsSink receives execution telemetry. Implementations must be safe
// for concurrent use; the executor calls NodeCompleted from every branch.
type MetricsSink interface {
	RunStarted()
	NodeCompleted(node string, degraded bool, elapsed time.Duration)
	PollFinished(outcome string)
	SynthesisFellBack()
}
