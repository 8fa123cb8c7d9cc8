// Package ext implements lifecycle extensions for sched.
//
// An extension is any type with a Name() plus one or more opt-in hook
// interfaces (JobSubmitted, JobStarted, JobCompleted, JobFailed,
// JobCancelled, CronFired, QueueCleared, Shutdown). Register extensions
// with a [Registry]; the scheduler emits events through it at each
// lifecycle transition. Hook errors are logged, never propagated.
package ext
