package sched

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("sched: no store configured")
	ErrStoreClosed = errors.New("sched: store closed")

	// Not found errors.
	ErrJobNotFound = errors.New("sched: job not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("sched: job already exists")
	ErrResultExists     = errors.New("sched: result already recorded")

	// Submission errors.
	ErrNilRunner          = errors.New("sched: nil runner")
	ErrCyclicDependency   = errors.New("sched: cyclic dependency set")
	ErrInvalidConcurrency = errors.New("sched: concurrency must be positive")

	// State errors.
	ErrInvalidState = errors.New("sched: invalid state transition")
	ErrJobCancelled = errors.New("sched: job cancelled")
)
