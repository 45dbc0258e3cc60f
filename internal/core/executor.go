package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
)

// Executor runs a TaskGraph over one shared input. Task nodes within a
// topological layer execute concurrently; each writes its result into its
// own slot; the sink starts only once every slot is filled. Task-level
// failures arrive as degraded results and never abort the run. Only a
// structural graph error is fatal.
type Executor struct {
	logger  *slog.Logger
	metrics ports.MetricsSink
}

func NewExecutor(logger *slog.Logger, metrics ports.MetricsSink) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger, metrics: metrics}
}

// Execute validates the graph, fans the input out across its layers and
// joins at the sink. The returned error is non-nil only for structural
// defects, detected before any node has run.
func (e *Executor) Execute(ctx context.Context, graph *TaskGraph, batch *domain.LogBatch) (domain.Diagnosis, error) {
	if err := graph.Validate(); err != nil {
		return domain.Diagnosis{}, err
	}

	runID := uuid.NewString()
	layers, err := graph.Layers()
	if err != nil {
		return domain.Diagnosis{}, err
	}

	if e.metrics != nil {
		e.metrics.RunStarted()
	}
	e.logger.Info("starting investigation run",
		"run_id", runID,
		"tasks", graph.Size(),
		"layers", len(layers),
	)

	results := make(map[domain.NodeID]domain.NodeResult, graph.Size())
	var mu sync.Mutex

	for _, layer := range layers {
		eg, layerCtx := errgroup.WithContext(ctx)
		for _, id := range layer {
			id := id
			task := graph.tasks[id]
			eg.Go(func() error {
				res := e.runTask(layerCtx, runID, task, batch)
				mu.Lock()
				results[id] = res
				mu.Unlock()
				return nil
			})
		}
		// Tasks convert their own failures into degraded results, so the
		// group never carries an error; Wait is purely the layer barrier.
		_ = eg.Wait()
	}

	diagnosis := graph.sink.Synthesize(ctx, results)

	e.logger.Info("investigation run complete",
		"run_id", runID,
		"severity", diagnosis.Severity,
		"confidence", diagnosis.ConfidenceLevel,
		"status", diagnosis.Status,
	)
	return diagnosis, nil
}

func (e *Executor) runTask(ctx context.Context, runID string, task ports.AgentTask, batch *domain.LogBatch) (res domain.NodeResult) {
	id := task.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panicked",
				"run_id", runID,
				"node", id,
				"panic", fmt.Sprint(r),
			)
			res = domain.DegradedNodeResult(
				domain.RawOutput{"panic": fmt.Sprint(r)},
				fmt.Errorf("task %s panicked: %v", id, r),
			)
		}

		elapsed := time.Since(start)
		if e.metrics != nil {
			e.metrics.NodeCompleted(string(id), res.Degraded(), elapsed)
		}
		e.logger.Debug("task finished",
			"run_id", runID,
			"node", id,
			"degraded", res.Degraded(),
			"elapsed", elapsed,
		)
	}()

	return task.Run(ctx, batch)
}
