package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselabs/sleuth/internal/domain"
)

// orderInsensitiveSynth builds a deterministic diagnosis from the result
// set so tests can compare runs with different completion orders.
func orderInsensitiveSynth() *stubSynth {
	return &stubSynth{fn: func(results map[domain.NodeID]domain.NodeResult) domain.Diagnosis {
		ids := make([]string, 0, len(results))
		for id := range results {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)

		diag := domain.Diagnosis{
			Status:             domain.StatusComplete,
			Severity:           domain.IncidentLow,
			RootCause:          fmt.Sprintf("observed %d results", len(results)),
			SupportingEvidence: map[string]map[string]interface{}{},
		}
		for _, id := range ids {
			diag.AffectedComponents = append(diag.AffectedComponents, id)
			diag.SupportingEvidence[id] = results[domain.NodeID(id)].Evidence()
		}
		return diag
	}}
}

func TestExecute_SinkSeesEveryResultExactlyOnce(t *testing.T) {
	var calls int32
	g := NewTaskGraph()
	for _, id := range []domain.NodeID{"a", "b", "c", "d", "e"} {
		id := id
		require.NoError(t, g.AddTask(&stubTask{id: id, run: func(context.Context, *domain.LogBatch) domain.NodeResult {
			atomic.AddInt32(&calls, 1)
			return domain.OkResult(domain.RawOutput{"node": string(id)})
		}}))
		g.AddEdge(id, "sink")
	}

	var seen map[domain.NodeID]domain.NodeResult
	g.SetSink("sink", &stubSynth{fn: func(results map[domain.NodeID]domain.NodeResult) domain.Diagnosis {
		seen = results
		return domain.Diagnosis{Status: domain.StatusComplete}
	}})

	_, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
	require.NoError(t, err)

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	require.Len(t, seen, 5)
	for _, id := range []domain.NodeID{"a", "b", "c", "d", "e"} {
		assert.Contains(t, seen, id)
	}
}

func TestExecute_DiagnosisIndependentOfCompletionOrder(t *testing.T) {
	// Same task outputs, shuffled completion order across runs: the
	// diagnosis must come out identical every time.
	delaySets := [][]time.Duration{
		{0, 5 * time.Millisecond, 10 * time.Millisecond},
		{10 * time.Millisecond, 0, 5 * time.Millisecond},
		{5 * time.Millisecond, 10 * time.Millisecond, 0},
	}

	var baseline *domain.Diagnosis
	for _, delays := range delaySets {
		g := NewTaskGraph()
		for i, id := range []domain.NodeID{"log", "metrics", "deploy"} {
			id := id
			delay := delays[i]
			require.NoError(t, g.AddTask(&stubTask{id: id, run: func(ctx context.Context, _ *domain.LogBatch) domain.NodeResult {
				time.Sleep(delay)
				return domain.OkResult(domain.RawOutput{"node": string(id)})
			}}))
			g.AddEdge(id, "sink")
		}
		g.SetSink("sink", orderInsensitiveSynth())

		diag, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
		require.NoError(t, err)

		if baseline == nil {
			baseline = &diag
			continue
		}
		assert.Equal(t, *baseline, diag)
	}
}

func TestExecute_DegradedTaskNeverBlocksSynthesis(t *testing.T) {
	g := NewTaskGraph()
	require.NoError(t, g.AddTask(&stubTask{id: "broken", run: func(context.Context, *domain.LogBatch) domain.NodeResult {
		return domain.DegradedNodeResult(domain.RawOutput{"fallback": true}, errors.New("backend exploded"))
	}}))
	require.NoError(t, g.AddTask(&stubTask{id: "healthy"}))
	g.AddEdge("broken", "sink")
	g.AddEdge("healthy", "sink")

	g.SetSink("sink", &stubSynth{fn: func(results map[domain.NodeID]domain.NodeResult) domain.Diagnosis {
		require.Len(t, results, 2)
		assert.True(t, results["broken"].Degraded())
		assert.False(t, results["healthy"].Degraded())
		return domain.Diagnosis{Status: domain.StatusComplete}
	}})

	diag, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, diag.Status)
}

func TestExecute_PanickingTaskIsIsolated(t *testing.T) {
	g := NewTaskGraph()
	require.NoError(t, g.AddTask(&stubTask{id: "panicky", run: func(context.Context, *domain.LogBatch) domain.NodeResult {
		panic("boom")
	}}))
	require.NoError(t, g.AddTask(&stubTask{id: "steady"}))
	g.AddEdge("panicky", "sink")
	g.AddEdge("steady", "sink")

	g.SetSink("sink", &stubSynth{fn: func(results map[domain.NodeID]domain.NodeResult) domain.Diagnosis {
		require.Len(t, results, 2)
		assert.True(t, results["panicky"].Degraded())
		return domain.Diagnosis{Status: domain.StatusComplete}
	}})

	_, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
	assert.NoError(t, err)
}

func TestExecute_StructuralErrorAbortsBeforeAnyTask(t *testing.T) {
	var ran int32
	g := NewTaskGraph()
	require.NoError(t, g.AddTask(&stubTask{id: "a", run: func(context.Context, *domain.LogBatch) domain.NodeResult {
		atomic.AddInt32(&ran, 1)
		return domain.OkResult(domain.RawOutput{})
	}}))
	g.AddEdge("ghost", "a")
	g.AddEdge("a", "sink")
	g.SetSink("sink", &stubSynth{})

	_, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
	require.Error(t, err)
	assert.True(t, domain.IsStructural(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestExecute_TaskContextFollowsParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawCancel bool
	g := NewTaskGraph()
	require.NoError(t, g.AddTask(&stubTask{id: "a", run: func(taskCtx context.Context, _ *domain.LogBatch) domain.NodeResult {
		sawCancel = taskCtx.Err() != nil
		return domain.OkResult(domain.RawOutput{})
	}}))
	g.AddEdge("a", "sink")
	g.SetSink("sink", &stubSynth{})

	_, err := NewExecutor(nil, nil).Execute(ctx, g, &domain.LogBatch{})
	require.NoError(t, err)
	assert.True(t, sawCancel, "a cancelled parent context must be visible inside tasks")
}

func TestExecute_DependentLayersRunInOrder(t *testing.T) {
	var sequence []string
	g := NewTaskGraph()

	require.NoError(t, g.AddTask(&stubTask{id: "first", run: func(context.Context, *domain.LogBatch) domain.NodeResult {
		sequence = append(sequence, "first")
		return domain.OkResult(domain.RawOutput{})
	}}))
	require.NoError(t, g.AddTask(&stubTask{id: "second", run: func(context.Context, *domain.LogBatch) domain.NodeResult {
		sequence = append(sequence, "second")
		return domain.OkResult(domain.RawOutput{})
	}}))
	g.AddEdge("first", "second")
	g.AddEdge("first", "sink")
	g.AddEdge("second", "sink")
	g.SetSink("sink", &stubSynth{})

	_, err := NewExecutor(nil, nil).Execute(context.Background(), g, &domain.LogBatch{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, sequence)
}
