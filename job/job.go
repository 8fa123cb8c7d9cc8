package job

import (
	"time"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is queued, waiting for its dependencies
	// and a free concurrency slot.
	StatePending State = "pending"
	// StateRunning means the job body is currently executing.
	StateRunning State = "running"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the job body returned or raised an error.
	StateFailed State = "failed"
	// StateCancelled means the job was explicitly cancelled.
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Satisfies reports whether a dependency in state s unblocks its
// dependents. Only completed and failed count: a cancelled dependency
// blocks dependents forever.
func (s State) Satisfies() bool {
	return s == StateCompleted || s == StateFailed
}

// Job represents a unit of submitted work: immutable identity plus
// mutable lifecycle state. The job body itself is held by the dispatcher
// and never persisted. Results live in the result store, keyed by job ID.
type Job struct {
	sched.Entity

	ID           id.JobID      `json:"id"`
	Name         string        `json:"name,omitempty"`
	Seq          uint64        `json:"seq"`
	Priority     int           `json:"priority"`
	Dependencies []id.JobID    `json:"dependencies,omitempty"`
	State        State         `json:"state"`
	LastError    string        `json:"last_error,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the job. Stores hand out clones so
// external readers never observe dispatcher mutation mid-flight.
func (j *Job) Clone() *Job {
	c := *j
	if j.Dependencies != nil {
		c.Dependencies = make([]id.JobID, len(j.Dependencies))
		copy(c.Dependencies, j.Dependencies)
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
