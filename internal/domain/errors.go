package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfig      = errors.New("missing configuration")
	ErrMalformedAnswer    = errors.New("malformed backend answer")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendTimeout     = errors.New("backend timeout")
)

// StructuralError marks a defect in the graph definition itself: a cycle,
// a dangling predecessor, or a bad sink. It is fatal and aborts the run
// before any node executes.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural graph error: " + e.Reason
}

func NewCycleError(stuck []NodeID) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf("cycle involving nodes %v", stuck)}
}

func NewDanglingPredecessorError(node, pred NodeID) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf("node %q references undefined predecessor %q", node, pred)}
}

func NewSinkError(reason string) *StructuralError {
	return &StructuralError{Reason: "sink: " + reason}
}

func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// BackendError wraps a failure talking to an external collaborator. Tasks
// recover it locally into a degraded result; it never crosses the task
// boundary.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend[%s] %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func NewBackendError(backend, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Err: err}
}

func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

func IsMissingConfig(err error) bool {
	return errors.Is(err, ErrMissingConfig)
}

func IsBackendTimeout(err error) bool {
	return errors.Is(err, ErrBackendTimeout)
}
