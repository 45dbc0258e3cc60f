package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendError(t *testing.T) {
	inner := ErrBackendTimeout
	err := NewBackendError("research", "poll", inner)

	assert.Equal(t, "backend[research] poll: backend timeout", err.Error())
	assert.True(t, IsBackendError(err))
	assert.True(t, IsBackendTimeout(err))
	assert.True(t, errors.Is(err, ErrBackendTimeout))

	wrapped := fmt.Errorf("task: %w", err)
	assert.True(t, IsBackendError(wrapped))
}

func TestStructuralError(t *testing.T) {
	err := NewDanglingPredecessorError("synthesis", "ghost")
	assert.True(t, IsStructural(err))
	assert.Contains(t, err.Error(), "ghost")

	assert.True(t, IsStructural(NewCycleError([]NodeID{"a", "b"})))
	assert.True(t, IsStructural(NewSinkError("not set")))
	assert.False(t, IsStructural(errors.New("plain")))
}

func TestIsMissingConfig(t *testing.T) {
	assert.True(t, IsMissingConfig(fmt.Errorf("gemini: %w", ErrMissingConfig)))
	assert.False(t, IsMissingConfig(ErrBackendUnavailable))
}
