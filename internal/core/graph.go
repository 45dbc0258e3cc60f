package core

import (
	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
)

// TaskGraph is a small DAG of named analysis tasks with a single designated
// sink. Tasks with no predecessors are roots and start immediately; the
// sink runs once every task has produced a result. A single-node graph is
// just the degenerate case of the same structure.
type TaskGraph struct {
	tasks map[domain.NodeID]ports.AgentTask
	order []domain.NodeID
	preds map[domain.NodeID][]domain.NodeID

	sinkID domain.NodeID
	sink   ports.Synthesizer
}

func NewTaskGraph() *TaskGraph {
	return &TaskGraph{
		tasks: make(map[domain.NodeID]ports.AgentTask),
		preds: make(map[domain.NodeID][]domain.NodeID),
	}
}

// AddTask registers a task node. Duplicate names are a structural error.
func (g *TaskGraph) AddTask(task ports.AgentTask) error {
	id := task.Name()
	if _, exists := g.tasks[id]; exists {
		return &domain.StructuralError{Reason: "duplicate node " + string(id)}
	}
	if id == g.sinkID && g.sink != nil {
		return &domain.StructuralError{Reason: "node " + string(id) + " collides with sink"}
	}
	g.tasks[id] = task
	g.order = append(g.order, id)
	return nil
}

// SetSink designates the single join node.
func (g *TaskGraph) SetSink(id domain.NodeID, synth ports.Synthesizer) {
	g.sinkID = id
	g.sink = synth
}

// AddEdge records that to depends on from.
func (g *TaskGraph) AddEdge(from, to domain.NodeID) {
	g.preds[to] = append(g.preds[to], from)
}

// Validate checks the graph for structural defects: a missing sink, edges
// referencing undefined nodes, edges out of the sink, cycles, and task
// nodes that can never reach the sink. It runs before any node executes.
func (g *TaskGraph) Validate() error {
	if g.sink == nil || g.sinkID == "" {
		return domain.NewSinkError("not set")
	}
	if _, ok := g.tasks[g.sinkID]; ok {
		return domain.NewSinkError("collides with task node " + string(g.sinkID))
	}
	if len(g.tasks) == 0 {
		return &domain.StructuralError{Reason: "graph has no task nodes"}
	}

	for to, froms := range g.preds {
		if !g.defined(to) {
			return &domain.StructuralError{Reason: "edge into undefined node " + string(to)}
		}
		for _, from := range froms {
			if !g.defined(from) {
				return domain.NewDanglingPredecessorError(to, from)
			}
			if from == g.sinkID {
				return domain.NewSinkError("has successor " + string(to))
			}
		}
	}

	if _, err := g.Layers(); err != nil {
		return err
	}

	return g.checkSinkReachability()
}

// Layers returns the task nodes (sink excluded) grouped into topological
// layers; nodes within one layer share no dependency and may run
// concurrently. An unresolvable remainder means a cycle.
func (g *TaskGraph) Layers() ([][]domain.NodeID, error) {
	remaining := make(map[domain.NodeID]bool, len(g.tasks))
	for id := range g.tasks {
		remaining[id] = true
	}

	var layers [][]domain.NodeID
	for len(remaining) > 0 {
		var layer []domain.NodeID
		for _, id := range g.order {
			if !remaining[id] {
				continue
			}
			ready := true
			for _, pred := range g.preds[id] {
				if remaining[pred] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, id)
			}
		}

		if len(layer) == 0 {
			var stuck []domain.NodeID
			for _, id := range g.order {
				if remaining[id] {
					stuck = append(stuck, id)
				}
			}
			return nil, domain.NewCycleError(stuck)
		}

		for _, id := range layer {
			delete(remaining, id)
		}
		layers = append(layers, layer)
	}

	return layers, nil
}

// checkSinkReachability verifies every task is a transitive predecessor of
// the sink, so the barrier really joins the whole graph.
func (g *TaskGraph) checkSinkReachability() error {
	reachable := make(map[domain.NodeID]bool)

	var visit func(id domain.NodeID)
	visit = func(id domain.NodeID) {
		for _, pred := range g.preds[id] {
			if !reachable[pred] {
				reachable[pred] = true
				visit(pred)
			}
		}
	}
	visit(g.sinkID)

	for id := range g.tasks {
		if !reachable[id] {
			return domain.NewSinkError("task " + string(id) + " never reaches the sink")
		}
	}
	return nil
}

func (g *TaskGraph) defined(id domain.NodeID) bool {
	if id == g.sinkID {
		return true
	}
	_, ok := g.tasks[id]
	return ok
}

// Size returns the number of task nodes, sink excluded.
func (g *TaskGraph) Size() int {
	return len(g.tasks)
}
