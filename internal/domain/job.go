package domain

// JobStatus is the lifecycle state of an asynchronous research job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job will make no further progress.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// PollableJob is a snapshot of an asynchronous job as seen by one poll.
// Answer is only meaningful once Status is completed.
type PollableJob struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	Answer string    `json:"answer,omitempty"`
}
