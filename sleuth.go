// Package sleuth is an incident investigation engine. It fans a decoded log
// batch out over independent analysis tasks (log pattern classification,
// metrics interpretation, deployment-diff risk), joins their results at a
// single synthesis sink and returns one structured diagnosis. Every task
// degrades to a deterministic fallback when its backend is unavailable, so a
// run always ends with a usable report.
package sleuth

import (
	"context"
	"log/slog"

	"github.com/oselabs/sleuth/internal/adapters/agents"
	"github.com/oselabs/sleuth/internal/adapters/synthesis"
	"github.com/oselabs/sleuth/internal/core"
	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
)

// Re-exported domain types so callers only import this package.
type (
	Config          = domain.Config
	Diagnosis       = domain.Diagnosis
	LogBatch        = domain.LogBatch
	LogEvent        = domain.LogEvent
	NodeResult      = domain.NodeResult
	Possibility     = domain.Possibility
	TextCompleter   = ports.TextCompleter
	ResearchBackend = ports.ResearchBackend
	DiffSource      = ports.DiffSource
	MetricsSink     = ports.MetricsSink
)

// DefaultConfig returns the engine configuration with every field set to its
// default.
func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	return domain.LoadConfig(path)
}

// Dependencies are the external collaborators injected into the standard
// investigation graph. Any of them may be nil: the owning task then runs its
// fallback path and reports a degraded result, which keeps offline and
// partially-configured runs useful.
type Dependencies struct {
	Completer ports.TextCompleter
	Research  ports.ResearchBackend
	Diff      ports.DiffSource
	Metrics   ports.MetricsSink
	Logger    *slog.Logger
}

// Investigator owns the standard incident investigation workflow: three
// independent analysis tasks fanned out over the shared log batch, joined at
// a single synthesis sink.
type Investigator struct {
	graph    *core.TaskGraph
	executor *core.Executor
	cfg      *domain.Config
	logger   *slog.Logger
}

// New wires the standard graph and validates it once, so a structural defect
// surfaces at construction rather than mid-run.
func New(cfg *Config, deps Dependencies) (*Investigator, error) {
	if cfg == nil {
		cfg = domain.DefaultConfig()
	} else if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	poller := core.NewJobPoller(cfg.Research, logger, deps.Metrics)

	graph := core.NewTaskGraph()
	tasks := []ports.AgentTask{
		agents.NewLogTask(deps.Research, poller, logger),
		agents.NewMetricsTask(deps.Completer, logger),
		agents.NewDeployTask(deps.Completer, deps.Diff, logger),
	}
	for _, task := range tasks {
		if err := graph.AddTask(task); err != nil {
			return nil, err
		}
		graph.AddEdge(task.Name(), domain.NodeSynthesis)
	}
	graph.SetSink(domain.NodeSynthesis, synthesis.New(deps.Completer, logger, deps.Metrics))

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	return &Investigator{
		graph:    graph,
		executor: core.NewExecutor(logger, deps.Metrics),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Investigate runs one workflow invocation: one log batch in, one finished
// diagnosis out. The run-level timeout from the config caps the whole fan
// out; an expiring deadline cancels any in-flight poll loops and the sink
// still runs over whatever the tasks produced.
func (inv *Investigator) Investigate(ctx context.Context, batch *LogBatch) (Diagnosis, error) {
	if timeout := inv.cfg.Engine.RunTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return inv.executor.Execute(ctx, inv.graph, batch)
}

// Graph exposes the underlying task graph for callers that want to extend it
// with additional analysis nodes before the first run.
func (inv *Investigator) Graph() *core.TaskGraph {
	return inv.graph
}
