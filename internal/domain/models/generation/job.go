package generation

import (
	"time"
)

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal returns true once a job has reached its final state. Terminal
// jobs never transition again; they are only evicted after the retention
// window.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is one asynchronous generation attempt for a target. At most one
// non-terminal job exists per target at a time.
type Job struct {
	ID        string            `json:"job_id"`
	TargetID  string            `json:"target_id"`
	Status    JobStatus         `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at,omitzero"`
	Result    map[string]string `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Elapsed returns how long the job has been running, or its total runtime
// once terminal.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j.Status.Terminal() && !j.EndedAt.IsZero() {
		return j.EndedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}

// Clone returns a snapshot copy safe to hand to pollers while the job
// mutates under the manager's lock.
func (j *Job) Clone() *Job {
	out := *j
	if j.Result != nil {
		out.Result = make(map[string]string, len(j.Result))
		for k, v := range j.Result {
			out.Result[k] = v
		}
	}
	return &out
}
