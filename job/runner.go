package job

import "context"

// Runner is the opaque executable contract of a job: a single-method
// capability that yields a value or an error. The scheduler makes no
// assumptions beyond this contract; panics inside Run are recovered by
// the execution middleware and surface as a failed outcome.
//
// The context passed to Run is cancelled when the job is cancelled while
// running. Cancellation is advisory: a body that ignores its context
// runs to completion, but its outcome is discarded.
type Runner interface {
	Run(ctx context.Context) (any, error)
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(ctx context.Context) (any, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context) (any, error) { return f(ctx) }
