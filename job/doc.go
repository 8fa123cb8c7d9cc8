// Package job defines the job entity, state machine, runner capability,
// and store interface.
//
// # Job Entity
//
// A [Job] represents a unit of work. It embeds [sched.Entity] for
// timestamps, carries a priority and dependency set, and progresses
// through a one-directional state machine:
//
//	pending → running → completed
//	pending → running → failed
//	pending → cancelled
//	pending → running → cancelled (advisory; the body keeps running)
//
// Fields of note:
//   - Priority: higher values are admitted first
//   - Seq: submission order, the tie-break within a priority
//   - Dependencies: job IDs that must reach completed or failed first
//   - Timeout: cooperative per-job execution deadline (zero = unlimited)
//
// # Runner
//
// The job body is a [Runner] — a single-method capability yielding a
// value or an error. Use [RunnerFunc] for plain functions:
//
//	r := job.RunnerFunc(func(ctx context.Context) (any, error) {
//	    return thumbnails.Render(ctx, src)
//	})
//
// # Store
//
// [Store] is the persistence contract for job records and write-once
// results. The store/memory package provides the in-process
// implementation the scheduler is designed around; store/redis provides
// an out-of-process archive variant.
package job
