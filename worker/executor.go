// Package worker provides the job execution engine — an Executor that
// invokes job bodies through middleware, and a Dispatcher that owns the
// pending queue, the concurrency gate, and every state transition.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sched/job"
	"github.com/xraph/sched/middleware"
)

// Executor runs a single job body through the middleware chain and
// reports its value. State transitions are the Dispatcher's job; the
// Executor is only the fault boundary around the body call.
type Executor struct {
	mw     middleware.Middleware
	logger *slog.Logger
}

// NewExecutor creates an Executor with the given middleware chain.
func NewExecutor(logger *slog.Logger, mws ...middleware.Middleware) *Executor {
	return &Executor{
		mw:     middleware.Chain(mws...),
		logger: logger,
	}
}

// Execute runs the job body through the middleware chain and returns
// its value, the wall-clock execution time, and any error. Panics in
// the body surface as errors via the Recover middleware.
func (e *Executor) Execute(ctx context.Context, j *job.Job, r job.Runner) (any, time.Duration, error) {
	start := time.Now()
	result, err := e.mw(ctx, j, r.Run)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Debug("job body returned error",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("error", err.Error()),
		)
	}
	return result, elapsed, err
}
