// Package sched provides a single-process, priority- and dependency-aware
// cooperative task scheduler for Go. Callers submit units of work with a
// priority and a set of prerequisite job IDs; the scheduler admits jobs
// under a bounded concurrency limit, tracks each job's lifecycle, stores
// its result or failure, and notifies interested callers via callback or
// blocking wait.
//
// Sched is designed as a library, not a service. Import it, configure a
// store, and submit jobs as ordinary Go functions.
//
// # Quick Start
//
//	s, err := sched.New(
//	    sched.WithStore(memory.New()),
//	    sched.WithConcurrency(4),
//	)
//
// Then build an engine with engine.Build(s) and submit work through it:
//
//	eng, _ := engine.Build(s)
//	jobID, _ := eng.Submit(ctx, job.RunnerFunc(func(ctx context.Context) (any, error) {
//	    return render(ctx)
//	}), job.WithPriority(5))
//	result, err := eng.Wait(ctx, jobID, 0)
//
// # Architecture
//
// Sched follows a composable layout where each subsystem (job, queue,
// worker, store) is its own package. The root package defines the shared
// Entity, configuration, and sentinel errors; the engine package sits
// above all subsystem packages and exposes the public operations.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package sched
