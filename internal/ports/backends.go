package ports

import (
	"context"

	"github.com/oselabs/sleuth/internal/domain"
)

// TextCompleter is a synchronous text-generation backend.
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ResearchBackend is an asynchronous research backend: work is submitted,
// then polled to a terminal state. Submit may return an empty id with a nil
// error when the backend accepted the request but issued no handle; callers
// treat that as "no handle" and fall back to their own default.
type ResearchBackend interface {
	Submit(ctx context.Context, prompt string) (string, error)
	Poll(ctx context.Context, id string) (domain.PollableJob, error)
}

// DiffSource produces a unified textual diff between two versioned
// configuration snapshots.
type DiffSource interface {
	Diff(ctx context.Context) (string, error)
}
