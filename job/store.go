package job

import (
	"context"

	"github.com/xraph/sched/id"
)

// ListOpts controls pagination for job list queries.
type ListOpts struct {
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Offset is the number of jobs to skip.
	Offset int
}

// CountOpts controls filtering for job count queries.
type CountOpts struct {
	// State filters by job state. Empty means all states.
	State State
}

// Store defines the persistence contract for job records and results.
// Records are mutated only by the dispatcher; results are write-once per
// job ID and never overwritten after a terminal state is reached.
// Implementations must be safe for reads concurrent with dispatcher
// mutation.
type Store interface {
	// InsertJob persists a new job record in pending state.
	InsertJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job record by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing job record.
	UpdateJob(ctx context.Context, j *Job) error

	// ListJobs returns job records ordered by submission sequence.
	ListJobs(ctx context.Context, opts ListOpts) ([]*Job, error)

	// CountJobs returns the number of jobs matching the given options.
	CountJobs(ctx context.Context, opts CountOpts) (int64, error)

	// PutResult records the outcome value for a completed job.
	// A second write for the same job ID fails with ErrResultExists.
	PutResult(ctx context.Context, jobID id.JobID, value any) error

	// GetResult returns the recorded outcome for a job, with ok=false
	// when no result is present (job not finished, failed, or cancelled).
	GetResult(ctx context.Context, jobID id.JobID) (value any, ok bool, err error)
}
