package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/ports"
)

// PollOutcomeKind tags the terminal state of a poll loop. All four kinds
// are ordinary outcomes, not errors; callers map each one to a usable
// default so the graph is never starved.
type PollOutcomeKind string

const (
	PollCompleted PollOutcomeKind = "completed"
	PollFailed    PollOutcomeKind = "failed"
	PollTimedOut  PollOutcomeKind = "timed_out"
	PollNoHandle  PollOutcomeKind = "no_handle"
)

// PollOutcome is the result of driving one asynchronous job to a terminal
// state. Answer is set only for PollCompleted.
type PollOutcome struct {
	Kind   PollOutcomeKind
	Answer string
}

// SubmitFunc starts an asynchronous job and returns its handle. An empty
// handle with a nil error means the backend issued no job id.
type SubmitFunc func(ctx context.Context) (string, error)

// PollFunc fetches the current snapshot of a submitted job.
type PollFunc func(ctx context.Context, id string) (domain.PollableJob, error)

// JobPoller drives a submit/poll pair to a terminal outcome within a fixed
// budget. The wait is the only blocking point in the system, and it is
// cancellable: context expiry stops the loop promptly and is reported as
// PollTimedOut rather than waiting out the budget.
type JobPoller struct {
	Budget   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  ports.MetricsSink
}

func NewJobPoller(cfg domain.ResearchConfig, logger *slog.Logger, metrics ports.MetricsSink) JobPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return JobPoller{
		Budget:   cfg.PollBudget.Std(),
		Interval: cfg.PollInterval.Std(),
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Run submits the job and polls it until completed, failed, or the budget
// is exhausted. It never returns before a terminal status or timeout.
func (p JobPoller) Run(ctx context.Context, submit SubmitFunc, poll PollFunc) PollOutcome {
	outcome := p.run(ctx, submit, poll)
	if p.Metrics != nil {
		p.Metrics.PollFinished(string(outcome.Kind))
	}
	return outcome
}

func (p JobPoller) run(ctx context.Context, submit SubmitFunc, poll PollFunc) PollOutcome {
	id, err := submit(ctx)
	if err != nil || id == "" {
		if err != nil {
			p.Logger.Warn("job submission failed", "error", err)
		}
		return PollOutcome{Kind: PollNoHandle}
	}

	deadline := time.NewTimer(p.Budget)
	defer deadline.Stop()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		job, err := poll(ctx, id)
		if err != nil {
			p.Logger.Warn("job poll failed", "job_id", id, "error", err)
			return PollOutcome{Kind: PollFailed}
		}

		switch job.Status {
		case domain.JobCompleted:
			return PollOutcome{Kind: PollCompleted, Answer: job.Answer}
		case domain.JobFailed:
			return PollOutcome{Kind: PollFailed}
		}

		select {
		case <-ctx.Done():
			p.Logger.Debug("poll loop cancelled", "job_id", id)
			return PollOutcome{Kind: PollTimedOut}
		case <-deadline.C:
			p.Logger.Debug("poll budget exhausted", "job_id", id, "budget", p.Budget)
			return PollOutcome{Kind: PollTimedOut}
		case <-ticker.C:
		}
	}
}
