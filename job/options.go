package job

import (
	"time"

	"github.com/xraph/sched/id"
)

// Options configures per-job behavior such as priority and dependencies.
type Options struct {
	// Name is an optional human-readable label used in logs and metrics.
	Name string

	// Priority determines admission ordering. Higher values run first;
	// ties break by submission order.
	Priority int

	// Dependencies lists job IDs that must reach a completed or failed
	// state before this job becomes eligible. IDs that are never
	// submitted block the job forever.
	Dependencies []id.JobID

	// Timeout is the maximum duration the body may run before its
	// context is cancelled. Zero means unlimited. Like cancellation,
	// the deadline is cooperative.
	Timeout time.Duration

	// ID, when set, is used instead of a freshly generated job ID.
	// Pre-allocating an ID with id.NewJobID lets a dependent reference
	// a job that will be submitted later.
	ID id.JobID
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}

// Option is a functional option for configuring a job submission.
type Option func(*Options)

// WithName sets a human-readable label for the job.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithPriority sets the job priority. Higher values run first.
func WithPriority(p int) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithDependencies sets the job IDs this job waits for.
func WithDependencies(deps ...id.JobID) Option {
	return func(o *Options) {
		o.Dependencies = append(o.Dependencies, deps...)
	}
}

// WithTimeout sets the cooperative execution deadline for the body.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithID submits the job under a pre-allocated ID.
func WithID(jobID id.JobID) Option {
	return func(o *Options) {
		o.ID = jobID
	}
}
