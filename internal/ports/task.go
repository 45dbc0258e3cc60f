package ports

import (
	"context"

	"github.com/oselabs/sleuth/internal/domain"
)

// AgentTask is the uniform unit of work in the graph. Run must never let a
// backend failure escape: any error, malformed answer or timeout is
// converted into a degraded NodeResult carrying a task-specific safe
// default. That local recovery is what makes fan-out/fan-in safe.
type AgentTask interface {
	Name() domain.NodeID
	Run(ctx context.Context, batch *domain.LogBatch) domain.NodeResult
}

// Synthesizer is the sole sink of the graph: it consumes every upstream
// result, degraded or not, and always produces a Diagnosis. Synthesis
// failures fall back to deterministic rules internally.
type Synthesizer interface {
	Synthesize(ctx context.Context, results map[domain.NodeID]domain.NodeResult) domain.Diagnosis
}
