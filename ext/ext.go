// Package ext defines the extension system for sched.
// Extensions are notified of lifecycle events (job submitted, completed,
// failed, etc.) and can react to them — logging, metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobSubmitted is called after a job is successfully submitted.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, j *job.Job) error
}

// JobStarted is called when a job is admitted and its body begins
// executing.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job body finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, result any, elapsed time.Duration) error
}

// JobFailed is called when a job body returns or raises an error.
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// JobCancelled is called when a job is cancelled, whether it was still
// queued or already running (advisory).
type JobCancelled interface {
	OnJobCancelled(ctx context.Context, j *job.Job) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// CronFired is called each time a cron-scheduled job body fires.
type CronFired interface {
	OnCronFired(ctx context.Context, jobID id.JobID, at time.Time) error
}

// QueueCleared is called after ClearQueue cancels all pending jobs.
type QueueCleared interface {
	OnQueueCleared(ctx context.Context, cancelled int) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
